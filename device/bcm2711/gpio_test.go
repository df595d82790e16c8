package bcm2711

import (
	"testing"
	"unsafe"

	"github.com/bmeneg/LapwingOS/kernel/hal/bootparams"
	"github.com/bmeneg/LapwingOS/kernel/mmio/sim"
	"github.com/stretchr/testify/assert"
)

const gpioWords = int(unsafe.Sizeof(gpioRegisters{}) / 4)

func TestGPIOLayout(t *testing.T) {
	var r gpioRegisters

	specs := []struct {
		name   string
		offset uintptr
		exp    uintptr
	}{
		{"fsel", unsafe.Offsetof(r.fsel), 0x00},
		{"set", unsafe.Offsetof(r.set), 0x1c},
		{"clr", unsafe.Offsetof(r.clr), 0x28},
		{"lev", unsafe.Offsetof(r.lev), 0x34},
		{"eds", unsafe.Offsetof(r.eds), 0x40},
		{"ren", unsafe.Offsetof(r.ren), 0x4c},
		{"fen", unsafe.Offsetof(r.fen), 0x58},
		{"hen", unsafe.Offsetof(r.hen), 0x64},
		{"len", unsafe.Offsetof(r.len), 0x70},
		{"aren", unsafe.Offsetof(r.aren), 0x7c},
		{"afen", unsafe.Offsetof(r.afen), 0x88},
		{"pull_cntrl", unsafe.Offsetof(r.pullCntrl), 0xe4},
	}

	for _, spec := range specs {
		assert.Equal(t, spec.exp, spec.offset, spec.name)
	}
	assert.Equal(t, uintptr(0xf4), unsafe.Sizeof(r))
}

// fillGPIO seeds every word of the block with pattern.
func fillGPIO(space *sim.Space, base uint64, pattern uint32) {
	for i := 0; i < gpioWords; i++ {
		space.Poke(base+uint64(i*4), pattern)
	}
}

func TestSetFunction(t *testing.T) {
	space, b, _ := newTestBoard(t, bootparams.Default())
	base := b.GPIO.block.Addr()

	for _, pattern := range []uint32{0, 0xffff_ffff, 0x5555_5555, 0xaaaa_aaaa} {
		for pin := uint(0); pin < NumPins; pin++ {
			for fn := FuncInput; fn <= FuncAlt3; fn++ {
				fillGPIO(space, base, pattern)
				b.GPIO.SetFunction(pin, fn)

				shift := (pin % 10) * 3
				for i := 0; i < gpioWords; i++ {
					exp := pattern
					if uint(i) == pin/10 {
						exp = pattern&^(0x7<<shift) | uint32(fn)<<shift
					}
					if got := space.Peek(base + uint64(i*4)); got != exp {
						t.Fatalf("pattern %#x pin %d fn %d: word %d = %#x; expected %#x", pattern, pin, fn, i, got, exp)
					}
				}
				assert.Equal(t, fn, b.GPIO.Function(pin))
			}
		}
	}
}

func TestSetPull(t *testing.T) {
	space, b, _ := newTestBoard(t, bootparams.Default())
	base := b.GPIO.block.Addr()

	var r gpioRegisters
	pullWord := int(unsafe.Offsetof(r.pullCntrl) / 4)

	for _, pattern := range []uint32{0, 0xffff_ffff, 0x5555_5555, 0xaaaa_aaaa} {
		for pin := uint(0); pin < NumPins; pin++ {
			for _, pull := range []Pull{PullNone, PullUp, PullDown} {
				fillGPIO(space, base, pattern)
				b.GPIO.SetPull(pin, pull)

				shift := (pin % 16) * 2
				for i := 0; i < gpioWords; i++ {
					exp := pattern
					if i == pullWord+int(pin/16) {
						exp = pattern&^(0x3<<shift) | uint32(pull)<<shift
					}
					if got := space.Peek(base + uint64(i*4)); got != exp {
						t.Fatalf("pattern %#x pin %d pull %d: word %d = %#x; expected %#x", pattern, pin, pull, i, got, exp)
					}
				}
			}
		}
	}
}

func TestPinOutOfRange(t *testing.T) {
	space, b, _ := newTestBoard(t, bootparams.Default())
	base := b.GPIO.block.Addr()
	calls := mockPanic(t)

	fillGPIO(space, base, 0x1234_5678)

	b.GPIO.SetFunction(NumPins, FuncOutput)
	b.GPIO.SetPull(NumPins, PullUp)
	b.GPIO.Set(64)
	b.GPIO.ClearEvent(1000)
	assert.False(t, b.GPIO.Level(NumPins))
	assert.False(t, b.GPIO.EventDetected(NumPins))
	assert.Equal(t, FuncInput, b.GPIO.Function(NumPins))

	assert.Len(t, *calls, 7)
	for _, call := range *calls {
		assert.Equal(t, errPinRange, call)
	}

	for i := 0; i < gpioWords; i++ {
		assert.Equal(t, uint32(0x1234_5678), space.Peek(base+uint64(i*4)), "word %d", i)
	}
}

func TestLevelSetAndEvents(t *testing.T) {
	space, b, _ := newTestBoard(t, bootparams.Default())
	base := b.GPIO.block.Addr()

	space.Poke(base+0x34, 1<<4)
	space.Poke(base+0x38, 1<<1)
	assert.True(t, b.GPIO.Level(4))
	assert.True(t, b.GPIO.Level(33))
	assert.False(t, b.GPIO.Level(5))
	assert.False(t, b.GPIO.Level(32))

	b.GPIO.Set(40)
	assert.Equal(t, uint32(1<<8), space.Peek(base+0x20))
	assert.Zero(t, space.Peek(base+0x1c))

	space.Poke(base+0x40, 1<<7|1<<9)
	assert.True(t, b.GPIO.EventDetected(7))
	assert.False(t, b.GPIO.EventDetected(8))

	b.GPIO.ClearEvent(9)
	assert.Equal(t, uint32(1<<9), space.Peek(base+0x40))
}

func TestGPIODriverInfo(t *testing.T) {
	_, b, _ := newTestBoard(t, bootparams.Default())

	assert.Equal(t, "bcm2711_gpio", b.GPIO.DriverName())
	major, minor, patch := b.GPIO.DriverVersion()
	assert.Equal(t, [3]uint16{0, 1, 0}, [3]uint16{major, minor, patch})
	assert.Nil(t, b.GPIO.DriverInit(nil))
}
