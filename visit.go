// FILE: lixenwraith/bridge/visit.go
package bridge

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Visitor handles every case of Value.
// Adding a case to Value adds a method here.
type Visitor[R any] interface {
	Null() R
	Bool(b bool) R
	Int(i int64) R
	Real(f float64, decimal string) R
	Text(s string) R
	Bytes(b []byte) R
	Timestamp(t time.Time) R
	File(path string) R
	Sequence(items []Value) R
	Mapping(entries []Entry) R
	Date(d CalendarDate) R
	Alias(ref string) R
	Data(code, hex string) R
	Number(f float64, bits int) R
}

// Visit dispatches v to the matching visitor method.
// Slices handed to the visitor are the value's own; visitors must not modify them.
func Visit[R any](v Value, vis Visitor[R]) R {
	switch v.kind {
	case KindNull:
		return vis.Null()
	case KindBool:
		return vis.Bool(v.boolVal)
	case KindInt:
		return vis.Int(v.intVal)
	case KindReal:
		return vis.Real(v.numVal, v.strVal)
	case KindText:
		return vis.Text(v.strVal)
	case KindBytes:
		return vis.Bytes(v.bytesVal)
	case KindTimestamp:
		return vis.Timestamp(v.timeVal)
	case KindFile:
		return vis.File(v.strVal)
	case KindSequence:
		return vis.Sequence(v.items)
	case KindMapping:
		return vis.Mapping(v.entries)
	case KindDate:
		return vis.Date(*v.dateVal)
	case KindAlias:
		return vis.Alias(v.strVal)
	case KindData:
		return vis.Data(v.code, v.strVal)
	case KindNumber:
		return vis.Number(v.numVal, v.bits)
	default:
		panic(fmt.Sprintf("bridge: unhandled kind %d", v.kind))
	}
}

// String renders the value in a compact, script-like notation.
func (v Value) String() string {
	var sb strings.Builder
	Visit[struct{}](v, &printer{sb: &sb})
	return sb.String()
}

// printer writes the script-like notation used by Value.String.
type printer struct {
	sb *strings.Builder
}

func (p *printer) Null() struct{} {
	p.sb.WriteString("missing value")
	return struct{}{}
}

func (p *printer) Bool(b bool) struct{} {
	p.sb.WriteString(strconv.FormatBool(b))
	return struct{}{}
}

func (p *printer) Int(i int64) struct{} {
	p.sb.WriteString(strconv.FormatInt(i, 10))
	return struct{}{}
}

func (p *printer) Real(_ float64, decimal string) struct{} {
	p.sb.WriteString(decimal)
	if !strings.ContainsAny(decimal, ".eE") {
		p.sb.WriteString(".0")
	}
	return struct{}{}
}

func (p *printer) Text(s string) struct{} {
	p.sb.WriteString(strconv.Quote(s))
	return struct{}{}
}

func (p *printer) Bytes(b []byte) struct{} {
	fmt.Fprintf(p.sb, "bytes(%d)", len(b))
	return struct{}{}
}

func (p *printer) Timestamp(t time.Time) struct{} {
	fmt.Fprintf(p.sb, "timestamp %q", t.UTC().Format(time.RFC3339Nano))
	return struct{}{}
}

func (p *printer) File(path string) struct{} {
	fmt.Fprintf(p.sb, "file %q", path)
	return struct{}{}
}

func (p *printer) Sequence(items []Value) struct{} {
	p.sb.WriteByte('{')
	for i, item := range items {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		Visit[struct{}](item, p)
	}
	p.sb.WriteByte('}')
	return struct{}{}
}

func (p *printer) Mapping(entries []Entry) struct{} {
	p.sb.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(e.Key)
		p.sb.WriteByte(':')
		Visit[struct{}](e.Value, p)
	}
	p.sb.WriteByte('}')
	return struct{}{}
}

func (p *printer) Date(d CalendarDate) struct{} {
	fmt.Fprintf(p.sb, "date %q", d.String())
	return struct{}{}
}

func (p *printer) Alias(ref string) struct{} {
	fmt.Fprintf(p.sb, "alias %q", ref)
	return struct{}{}
}

func (p *printer) Data(code, hex string) struct{} {
	fmt.Fprintf(p.sb, "«data %s%s»", code, hex)
	return struct{}{}
}

func (p *printer) Number(f float64, bits int) struct{} {
	p.sb.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	return struct{}{}
}
