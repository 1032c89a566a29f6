package hwio

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// regTag is the parsed content of a "hwio" struct tag:
//
//	bank=N        Bank number (default 0).
//	offset=0x12   Offset within the bank. Fields without an offset are
//	              initialized but never mapped by MapBank.
//	size=0x800    Physical size of a Mem, or size of a Device.
//	vsize=0x2000  Size of the window a Mem is mapped over (default: size).
//	reset=0x99    Initial value of a Reg8.
//	rwmask=0xF0   Writable bits of a Reg8 (default: all).
//	readonly      Writes are rejected.
//	writeonly     Reads are rejected.
//	rcb, pcb, wcb Read, peek and write callbacks. The method name defaults
//	              to Read<FIELD>, Peek<FIELD> and Write<FIELD> (upper case
//	              field name), and can be given with rcb=Name.
type regTag struct {
	bank   int
	offset int // -1 when absent
	size   int
	vsize  int
	reset  uint8
	rwmask uint8
	flags  RWFlags
	rcb    string
	pcb    string
	wcb    string
}

func parseTag(field string, tag string) (regTag, error) {
	rt := regTag{offset: -1, rwmask: 0xFF}
	up := strings.ToUpper(field)

	for opt := range strings.SplitSeq(tag, ",") {
		if opt == "" {
			continue
		}
		key, val, hasVal := strings.Cut(opt, "=")

		var n uint64
		var err error
		switch key {
		case "bank", "offset", "size", "vsize", "reset", "rwmask":
			if !hasVal {
				return rt, fmt.Errorf("%s: option %q requires a value", field, key)
			}
			if n, err = strconv.ParseUint(val, 0, 32); err != nil {
				return rt, fmt.Errorf("%s: option %q: %w", field, key, err)
			}
		}

		switch key {
		case "bank":
			rt.bank = int(n)
		case "offset":
			rt.offset = int(n)
		case "size":
			rt.size = int(n)
		case "vsize":
			rt.vsize = int(n)
		case "reset":
			rt.reset = uint8(n)
		case "rwmask":
			rt.rwmask = uint8(n)
		case "readonly":
			rt.flags |= ReadOnlyFlag
		case "writeonly":
			rt.flags |= WriteOnlyFlag
		case "rcb":
			rt.rcb = cmp.Or(val, "Read"+up)
		case "pcb":
			rt.pcb = cmp.Or(val, "Peek"+up)
		case "wcb":
			rt.wcb = cmp.Or(val, "Write"+up)
		default:
			return rt, fmt.Errorf("%s: unknown option %q", field, key)
		}
	}
	return rt, nil
}

// MustInitRegs initializes all the Reg8, Mem and Device fields of the
// structure pointed to by bank, according to their hwio tags, and binds their
// callbacks to the methods of bank. Tagged fields must be exported. It panics
// on any error since a malformed tag is a programming error.
func MustInitRegs(bank any) {
	if err := initRegs(bank); err != nil {
		panic(err)
	}
}

func initRegs(bank any) error {
	pv := reflect.ValueOf(bank)
	if pv.Kind() != reflect.Pointer || pv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: %T is not a pointer to struct", bank)
	}
	v := pv.Elem()
	typ := v.Type()

	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(sf.Name, tag)
		if err != nil {
			return fmt.Errorf("hwio: %s.%w", typ.Name(), err)
		}

		switch r := v.Field(i).Addr().Interface().(type) {
		case *Reg8:
			err = initReg8(pv, sf.Name, r, rt)
		case *Mem:
			err = initMem(sf.Name, r, rt)
		case *Device:
			err = initDevice(pv, sf.Name, r, rt)
		default:
			err = fmt.Errorf("unsupported type %T", r)
		}
		if err != nil {
			return fmt.Errorf("hwio: %s.%s: %w", typ.Name(), sf.Name, err)
		}
	}
	return nil
}

func initReg8(bank reflect.Value, name string, r *Reg8, rt regTag) (err error) {
	*r = Reg8{
		Name:   name,
		Value:  rt.reset,
		RoMask: ^rt.rwmask,
		Flags:  rt.flags,
	}
	if rt.rcb != "" {
		if r.ReadCb, err = method[func(uint8) uint8](bank, rt.rcb); err != nil {
			return err
		}
	}
	if rt.pcb != "" {
		if r.PeekCb, err = method[func(uint8) uint8](bank, rt.pcb); err != nil {
			return err
		}
	}
	if rt.wcb != "" {
		if r.WriteCb, err = method[func(uint8, uint8)](bank, rt.wcb); err != nil {
			return err
		}
	}
	return nil
}

func initMem(name string, m *Mem, rt regTag) error {
	if rt.size == 0 {
		return errors.New("mem requires a size")
	}
	if rt.size&(rt.size-1) != 0 {
		return fmt.Errorf("mem size %#x is not a power of 2", rt.size)
	}
	if rt.rcb != "" || rt.pcb != "" || rt.wcb != "" {
		return errors.New("mem doesn't support callbacks")
	}
	*m = NewMem(name, rt.size, rt.vsize)
	return nil
}

func initDevice(bank reflect.Value, name string, d *Device, rt regTag) (err error) {
	if rt.size == 0 {
		return errors.New("device requires a size")
	}
	*d = Device{
		Name:  name,
		Size:  rt.size,
		Flags: rt.flags,
	}
	if rt.rcb != "" {
		if d.ReadCb, err = method[func(uint16) uint8](bank, rt.rcb); err != nil {
			return err
		}
	}
	if rt.pcb != "" {
		if d.PeekCb, err = method[func(uint16) uint8](bank, rt.pcb); err != nil {
			return err
		}
	}
	if rt.wcb != "" {
		if d.WriteCb, err = method[func(uint16, uint8)](bank, rt.wcb); err != nil {
			return err
		}
	}
	return nil
}

// method returns the method of bank with the given name, as a F.
func method[F any](bank reflect.Value, name string) (F, error) {
	var fn F
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return fn, fmt.Errorf("missing method %s", name)
	}
	fn, ok := m.Interface().(F)
	if !ok {
		return fn, fmt.Errorf("method %s has type %s, want %T", name, m.Type(), fn)
	}
	return fn, nil
}

type bankReg struct {
	offset uint16
	regPtr any
}

// bankGetRegs returns the fields of bank belonging to bank number bankNum.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	pv := reflect.ValueOf(bank)
	if pv.Kind() != reflect.Pointer || pv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: %T is not a pointer to struct", bank)
	}
	v := pv.Elem()
	typ := v.Type()

	var regs []bankReg
	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(sf.Name, tag)
		if err != nil {
			return nil, fmt.Errorf("hwio: %s.%w", typ.Name(), err)
		}
		if rt.bank != bankNum || rt.offset < 0 {
			continue
		}
		if rt.offset > 0xFFFF {
			return nil, fmt.Errorf("hwio: %s.%s: offset %#x out of range", typ.Name(), sf.Name, rt.offset)
		}
		regs = append(regs, bankReg{
			offset: uint16(rt.offset),
			regPtr: v.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
