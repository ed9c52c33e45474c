package universe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

// ErrMalformed indicates initial-condition data that does not match the schema.
var ErrMalformed = errors.New("universe: malformed initial conditions")

// Universe is a decoded initial-condition dataset. Radius is the half-width of
// the square domain; the simulation never reads it.
type Universe struct {
	Radius float64
	Bodies []physics.Body
}

// View returns a read-only view of the bodies.
func (u *Universe) View() physics.View {
	return physics.NewView(u.Bodies)
}

// Load reads a universe from a file.
func Load(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Read decodes whitespace-separated tokens: the body count N, the radius,
// then N records of x, y, vx, vy, mass and tag. Tokens after the last record
// are ignored.
func Read(r io.Reader) (*Universe, error) {
	tr := newTokenReader(r)

	n, err := tr.int("body count")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: body count must be positive, got %d", ErrMalformed, n)
	}

	radius, err := tr.float("radius")
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", ErrMalformed, radius)
	}

	bodies := make([]physics.Body, 0, n)
	for k := 0; k < n; k++ {
		var vals [5]float64
		for i, field := range [...]string{"x", "y", "vx", "vy", "mass"} {
			v, err := tr.float(fmt.Sprintf("body %d %s", k, field))
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		tag, err := tr.next(fmt.Sprintf("body %d tag", k))
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, physics.New(vals[0], vals[1], vals[2], vals[3], vals[4], tag))
	}

	return &Universe{Radius: radius, Bodies: bodies}, nil
}

type tokenReader struct {
	sc *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next(what string) (string, error) {
	if t.sc.Scan() {
		return t.sc.Text(), nil
	}
	if err := t.sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: missing %s", ErrMalformed, what)
}

func (t *tokenReader) int(what string) (int, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrMalformed, what, tok)
	}
	return n, nil
}

func (t *tokenReader) float(what string) (float64, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformed, what, tok)
	}
	return v, nil
}
