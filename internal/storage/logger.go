package storage

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/atomsim/internal/world"
)

// CSVLogger streams temperature, pressure, area and atom count, one row
// per frame. It satisfies sim.Observer.
type CSVLogger struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{w: csv.NewWriter(w)}
}

func (l *CSVLogger) OnFrame(f world.Frame) error {
	if !l.wroteHeader {
		if err := l.w.Write([]string{"temperature", "pressure", "area", "atoms"}); err != nil {
			return err
		}
		l.wroteHeader = true
	}
	err := l.w.Write([]string{
		formatFloat(f.Temperature),
		formatFloat(f.Pressure),
		formatFloat(f.Area),
		strconv.Itoa(f.Sample.Atoms),
	})
	if err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}
