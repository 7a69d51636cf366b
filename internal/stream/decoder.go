// Package stream decodes a server-sent event stream of chat-completion
// chunks into ordered text deltas.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// DataPrefix marks a line carrying a payload.
	DataPrefix = "data: "
	// CommentPrefix marks a line that is ignored.
	CommentPrefix = ":"
	// DoneSentinel ends the stream.
	DoneSentinel = "[DONE]"
)

type chunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder holds the bytes received so far that do not yet form a complete
// frame. The zero value is ready to use. A Decoder is not safe for
// concurrent use.
type Decoder struct {
	buf  []byte
	done bool
}

// Feed appends p to the buffer and returns the deltas of every complete
// frame now available, in arrival order. A line whose payload is not valid
// JSON is put back in front of the buffer and decoding stops until more
// bytes arrive. After the sentinel, Feed returns nothing.
func (d *Decoder) Feed(p []byte) []string {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, p...)
	var out []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return out
		}
		line := d.buf[:i]
		rest := d.buf[i+1:]
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if len(bytes.TrimSpace(line)) == 0 || bytes.HasPrefix(line, []byte(CommentPrefix)) {
			d.buf = rest
			continue
		}
		if !bytes.HasPrefix(line, []byte(DataPrefix)) {
			d.buf = rest
			continue
		}
		payload := bytes.TrimSpace(line[len(DataPrefix):])
		if string(payload) == DoneSentinel {
			d.done = true
			d.buf = nil
			return out
		}
		if !json.Valid(payload) {
			// push back the whole line and wait for more input
			pushed := make([]byte, 0, len(line)+1+len(rest))
			pushed = append(pushed, line...)
			pushed = append(pushed, '\n')
			d.buf = append(pushed, rest...)
			return out
		}
		d.buf = rest
		var c chunk
		if err := json.Unmarshal(payload, &c); err != nil {
			continue
		}
		if len(c.Choices) > 0 && c.Choices[0].Delta.Content != nil && *c.Choices[0].Delta.Content != "" {
			out = append(out, *c.Choices[0].Delta.Content)
		}
	}
}

// Done reports whether the end sentinel has been seen.
func (d *Decoder) Done() bool { return d.done }

// Buffered returns the number of undelivered bytes.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Reset drops buffered bytes and the done flag.
func (d *Decoder) Reset() {
	d.buf = nil
	d.done = false
}

const readSize = 4 << 10

// Decode reads r until the sentinel, EOF or cancellation, calling onDelta for
// every delta in order. Bytes still buffered at EOF are discarded. When ctx is
// cancelled no further deltas are delivered and ctx.Err() is returned.
func Decode(ctx context.Context, r io.Reader, onDelta func(string)) error {
	var dec Decoder
	p := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			dec.Reset()
			return err
		}
		n, rerr := r.Read(p)
		if n > 0 {
			for _, delta := range dec.Feed(p[:n]) {
				if err := ctx.Err(); err != nil {
					dec.Reset()
					return err
				}
				onDelta(delta)
			}
			if dec.Done() {
				return nil
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			return fmt.Errorf("stream read: %w", rerr)
		}
	}
}
