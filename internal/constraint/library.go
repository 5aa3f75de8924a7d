package constraint

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/physics"
)

// ErrMalformedTemplate is returned by Load for input that does not follow
// the template file layout.
var ErrMalformedTemplate = errors.New("malformed constraint template")

var errUnknownType = errors.New("unknown constraint type")

// TemplateLibrary stores templates by name.
type TemplateLibrary struct {
	templates map[string]*Template
	logger    *zap.Logger
}

func NewTemplateLibrary(logger *zap.Logger) *TemplateLibrary {
	return &TemplateLibrary{
		templates: make(map[string]*Template),
		logger:    logging.OrNop(logger),
	}
}

// Add stores t, replacing a template with the same name.
func (l *TemplateLibrary) Add(t *Template) bool {
	if t == nil || t.Name == "" {
		l.logger.Error("TemplateLibrary: template needs a name")
		return false
	}
	l.templates[t.Name] = t
	return true
}

// Get returns the named template, or nil with a warning.
func (l *TemplateLibrary) Get(name string) *Template {
	t, ok := l.templates[name]
	if !ok {
		l.logger.Warn("TemplateLibrary: template not found", zap.String("name", name))
		return nil
	}
	return t
}

func (l *TemplateLibrary) Remove(name string) bool {
	if _, ok := l.templates[name]; !ok {
		return false
	}
	delete(l.templates, name)
	return true
}

func (l *TemplateLibrary) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *TemplateLibrary) Len() int {
	return len(l.templates)
}

// Save writes every template, sorted by name.
func (l *TemplateLibrary) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	names := l.Names()
	fmt.Fprintln(bw, "# constraint templates")
	fmt.Fprintf(bw, "COUNT=%d\n", len(names))
	for _, name := range names {
		writeTemplate(bw, l.templates[name])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write templates: %w", err)
	}
	return nil
}

func writeTemplate(w io.Writer, t *Template) {
	kv := func(key, value string) { fmt.Fprintf(w, "%s=%s\n", key, value) }
	fmt.Fprintln(w, "TEMPLATE_START")
	kv("name", t.Name)
	kv("type", t.Type.String())
	if t.Description != "" {
		kv("description", t.Description)
	}
	kv("pivot", formatVec(t.Pivot))
	kv("axis", formatVec(t.Axis))
	kv("limited", strconv.FormatBool(t.Limited))
	kv("lower", formatFloat(t.Lower))
	kv("upper", formatFloat(t.Upper))
	var springs []string
	for i, on := range t.Springs {
		if on {
			springs = append(springs, strconv.Itoa(i))
		}
	}
	kv("springs", strings.Join(springs, ","))
	kv("stiffness", formatFloat(t.Stiffness))
	kv("damping", formatFloat(t.Damping))
	kv("linear_lower", formatVec(t.LinearLower))
	kv("linear_upper", formatVec(t.LinearUpper))
	kv("angular_lower", formatVec(t.AngularLower))
	kv("angular_upper", formatVec(t.AngularUpper))
	kv("breakable", strconv.FormatBool(t.Breakable))
	kv("break_force", formatFloat(t.BreakForce))
	kv("break_torque", formatFloat(t.BreakTorque))
	fmt.Fprintln(w, "TEMPLATE_END")
}

// Load reads templates from r and adds them to the library. Nothing is added
// when the input is malformed. Unknown keys are ignored, and a template with
// an unknown type is skipped with a warning.
func (l *TemplateLibrary) Load(r io.Reader) (int, error) {
	var (
		parsed  []*Template
		current *Template
		skip    bool
		lineNo  int
	)
	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrMalformedTemplate, lineNo, fmt.Sprintf(format, args...))
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case line == "TEMPLATE_START":
			if current != nil {
				return 0, malformed("nested TEMPLATE_START")
			}
			current, skip = &Template{}, false
			continue
		case line == "TEMPLATE_END":
			if current == nil {
				return 0, malformed("TEMPLATE_END without TEMPLATE_START")
			}
			if current.Name == "" {
				return 0, malformed("template without name")
			}
			if skip {
				l.logger.Warn("TemplateLibrary: skipping template of unknown type",
					zap.String("name", current.Name), zap.Int("line", lineNo))
			} else {
				parsed = append(parsed, current)
			}
			current = nil
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return 0, malformed("expected key=value, got %q", line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if current == nil {
			if key == "COUNT" {
				if _, err := strconv.Atoi(value); err != nil {
					return 0, malformed("bad COUNT %q", value)
				}
			}
			continue
		}
		err := current.set(key, value)
		if errors.Is(err, errUnknownType) {
			skip = true
			continue
		}
		if err != nil {
			return 0, malformed("%s: %v", key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read templates: %w", err)
	}
	if current != nil {
		return 0, malformed("missing TEMPLATE_END")
	}

	for _, t := range parsed {
		l.templates[t.Name] = t
	}
	return len(parsed), nil
}

func (t *Template) set(key, value string) error {
	var err error
	switch key {
	case "name":
		t.Name = value
	case "description":
		t.Description = value
	case "type":
		kind, ok := ParseType(value)
		if !ok {
			return fmt.Errorf("%w %q", errUnknownType, value)
		}
		t.Type = kind
	case "pivot":
		t.Pivot, err = parseVec(value)
	case "axis":
		t.Axis, err = parseVec(value)
	case "limited":
		t.Limited, err = strconv.ParseBool(value)
	case "lower":
		t.Lower, err = parseFloat(value)
	case "upper":
		t.Upper, err = parseFloat(value)
	case "springs":
		t.Springs, err = parseSprings(value)
	case "stiffness":
		t.Stiffness, err = parseFloat(value)
	case "damping":
		t.Damping, err = parseFloat(value)
	case "linear_lower":
		t.LinearLower, err = parseVec(value)
	case "linear_upper":
		t.LinearUpper, err = parseVec(value)
	case "angular_lower":
		t.AngularLower, err = parseVec(value)
	case "angular_upper":
		t.AngularUpper, err = parseVec(value)
	case "breakable":
		t.Breakable, err = strconv.ParseBool(value)
	case "break_force":
		t.BreakForce, err = parseFloat(value)
	case "break_torque":
		t.BreakTorque, err = parseFloat(value)
	}
	return err
}

func (l *TemplateLibrary) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create template file: %w", err)
	}
	if err := l.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close template file: %w", err)
	}
	return nil
}

func (l *TemplateLibrary) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open template file: %w", err)
	}
	defer f.Close()
	n, err := l.Load(f)
	if err != nil {
		return 0, err
	}
	l.logger.Info("TemplateLibrary: loaded templates", zap.String("path", path), zap.Int("count", n))
	return n, nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func formatVec(v rl.Vector3) string {
	return formatFloat(v.X) + "," + formatFloat(v.Y) + "," + formatFloat(v.Z)
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func parseVec(s string) (rl.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rl.Vector3{}, fmt.Errorf("vector %q needs three components", s)
	}
	var c [3]float32
	for i, p := range parts {
		f, err := parseFloat(strings.TrimSpace(p))
		if err != nil {
			return rl.Vector3{}, err
		}
		c[i] = f
	}
	return rl.Vector3{X: c[0], Y: c[1], Z: c[2]}, nil
}

func parseSprings(s string) ([physics.AxisCount]bool, error) {
	var out [physics.AxisCount]bool
	if s == "" {
		return out, nil
	}
	for _, p := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, err
		}
		if i < 0 || i >= physics.AxisCount {
			return out, fmt.Errorf("axis %d out of range", i)
		}
		out[i] = true
	}
	return out, nil
}
