package stream

import (
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns a sequence of byte chunks into UTF-8 text. A multi-byte
// character split across two chunks is held back until its remaining bytes
// arrive. One Decoder per stream; it is not safe for concurrent use.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	buf   [4096]byte
}

// NewDecoder returns a Decoder with empty carry-over state.
func NewDecoder() *Decoder {
	return &Decoder{t: xunicode.UTF8.NewDecoder()}
}

// Decode returns the text decodable from p plus any bytes carried over from
// the previous call. Invalid sequences become U+FFFD.
func (d *Decoder) Decode(p []byte) string {
	return d.decode(p, false)
}

// Flush ends the stream: dangling bytes of an incomplete character are
// emitted as U+FFFD and the state is reset.
func (d *Decoder) Flush() string {
	out := d.decode(nil, true)
	d.t.Reset()
	return out
}

// Pending reports how many bytes are held back waiting for the rest of a character.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) decode(p []byte, atEOF bool) string {
	src := p
	if len(d.carry) > 0 {
		src = append(d.carry, p...)
		d.carry = nil
	}

	var sb strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.buf[:], src, atEOF)
		sb.Write(d.buf[:nDst])
		src = src[nSrc:]
		if err == transform.ErrShortDst {
			continue
		}
		if err == transform.ErrShortSrc {
			d.carry = append([]byte(nil), src...)
		}
		return sb.String()
	}
}
