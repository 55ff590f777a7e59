package noaa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kilianp07/haulplan/core/model"
)

const annualLayout = "2006/01/02 03:04 PM"

// AnnualPath returns the location of a station's annual predictions file.
func AnnualPath(dir, station string, year int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.txt", station, year))
}

// ParseAnnual reads an annual predictions file. Each event line reads
//
//	YYYY/MM/DD  DAY  HH:MM  AM|PM  HEIGHT  TYPE
//
// Lines that do not start with a digit, and lines that do not parse, are skipped.
func ParseAnnual(r io.Reader, station string) ([]model.TideEvent, error) {
	var out []model.TideEvent
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		if ev, ok := parseAnnualLine(line, station); ok {
			out = append(out, ev)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read annual predictions: %w", err)
	}
	return out, nil
}

func parseAnnualLine(line, station string) (model.TideEvent, bool) {
	f := strings.Fields(line)
	if len(f) < 6 {
		return model.TideEvent{}, false
	}
	ts, err := time.ParseInLocation(annualLayout, f[0]+" "+f[2]+" "+strings.ToUpper(f[3]), time.UTC)
	if err != nil {
		return model.TideEvent{}, false
	}
	height, err := strconv.ParseFloat(f[4], 64)
	if err != nil {
		return model.TideEvent{}, false
	}
	// Some publications add a metric height column before the type.
	for _, field := range f[5:] {
		if typ, ok := parseType(field); ok {
			return model.TideEvent{Station: station, Time: ts, Type: typ, Height: height}, true
		}
	}
	return model.TideEvent{}, false
}

// WriteAnnual writes events in the annual file format.
func WriteAnnual(w io.Writer, station string, events []model.TideEvent) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Station %s hilo predictions, times local standard/daylight, heights ft above MLLW\n", station)
	fmt.Fprintln(bw, "Date       Day Time     Hgt   H/L")
	for _, ev := range events {
		t := ev.Time.UTC()
		fmt.Fprintf(bw, "%s %s %s %5.2f %s\n",
			t.Format("2006/01/02"), t.Format("Mon"), t.Format("03:04 PM"), ev.Height, ev.Type)
	}
	return bw.Flush()
}

// ReadAnnualFile parses the annual file of station for year. A missing file
// yields os.ErrNotExist.
func ReadAnnualFile(dir, station string, year int) ([]model.TideEvent, error) {
	f, err := os.Open(AnnualPath(dir, station, year))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAnnual(f, station)
}

// WriteAnnualFile stores events as the annual file of station for year.
func WriteAnnualFile(dir, station string, year int, events []model.TideEvent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tide dir: %w", err)
	}
	path := AnnualPath(dir, station, year)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := WriteAnnual(f, station, events); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
