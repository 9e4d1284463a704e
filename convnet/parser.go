package convnet

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError records where in a network description parsing failed
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile reads a network from an XML file
func ParseFile(path string) (*Net, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening network file: %w", err)
	}

	defer f.Close()

	net, err := Parse(f)

	if err != nil {
		return nil, fmt.Errorf("error parsing network file %s: %w", path, err)
	}

	return net, nil
}

// ParseString reads a network from an XML string
func ParseString(s string) (*Net, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a network from its XML description.  Every error returned
// is a *ParseError wrapping ErrInvalidNet.
func Parse(r io.Reader) (*Net, error) {
	p := &parser{dec: xml.NewDecoder(r)}

	for {
		tok, err := p.dec.Token()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, p.fail("malformed XML: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			err = p.start(t)
		case xml.EndElement:
			err = p.end(t)
		case xml.CharData:
			if p.collecting {
				p.text.Write(t)
			}
		}

		if err != nil {
			return nil, err
		}
	}

	if p.net == nil {
		return nil, p.fail("no <net> element found")
	}

	if len(p.net.planes) == 0 {
		return nil, p.fail("network has no planes")
	}

	return p.net, nil
}

// pendingPlane is a plane whose <plane> element has not been closed yet
type pendingPlane struct {
	plane   Plane
	parents []string
	bias    []float64
	weights []float64
}

// parser is the state of a streaming parse of a network description
type parser struct {
	dec        *xml.Decoder
	net        *Net
	depth      int
	cur        *pendingPlane
	text       strings.Builder
	collecting bool
}

// fail builds a ParseError at the decoder's current position
func (p *parser) fail(format string, args ...any) error {
	line, col := p.dec.InputPos()

	return &ParseError{
		Line:   line,
		Column: col,
		Err:    fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidNet),
	}
}

// wrap turns an error from building the network into a ParseError
func (p *parser) wrap(err error) error {
	line, col := p.dec.InputPos()
	return &ParseError{Line: line, Column: col, Err: err}
}

func (p *parser) collect() {
	p.text.Reset()
	p.collecting = true
}

func (p *parser) start(el xml.StartElement) error {
	name := el.Name.Local

	switch {
	case name == "net" && p.depth == 0:
		if p.net != nil {
			return p.fail("more than one <net> element")
		}
		p.net = New(attr(el, "name"), attr(el, "creator"))

	case name == "info" && p.depth == 1:
		p.collect()

	case name == "plane" && p.depth == 1:
		plane, err := p.newPlane(el)

		if err != nil {
			return err
		}

		p.cur = &pendingPlane{plane: plane}

	case name == "connection" && p.depth == 2 && p.cur != nil:
		to := attr(el, "to")

		if _, ok := p.net.index[to]; !ok {
			return p.fail("plane %q connects to unknown or later plane %q",
				p.cur.plane.ID(), to)
		}

		p.cur.parents = append(p.cur.parents, to)
		p.collect()

	case name == "bias" && p.depth == 2 && p.cur != nil:
		if p.cur.plane.Kind() == KindMax {
			return p.fail("<bias> defined for max plane %q", p.cur.plane.ID())
		}

		if p.cur.bias != nil {
			return p.fail("plane %q has more than one <bias>", p.cur.plane.ID())
		}

		p.collect()

	default:
		return p.fail("undefined or misplaced tag <%s>", name)
	}

	p.depth++
	return nil
}

func (p *parser) end(el xml.EndElement) error {
	p.depth--
	text := p.text.String()
	p.collecting = false

	switch el.Name.Local {
	case "info":
		p.net.SetInfo(strings.TrimSpace(text))

	case "bias":
		vals, err := p.floats(text)

		if err != nil {
			return err
		}

		if len(vals) != 1 {
			return p.fail("plane %q <bias> needs one value, got %d",
				p.cur.plane.ID(), len(vals))
		}

		p.cur.bias = vals

	case "connection":
		vals, err := p.floats(text)

		if err != nil {
			return err
		}

		if len(vals) > 0 && p.cur.plane.Kind() == KindMax {
			return p.fail("weights defined for max plane %q", p.cur.plane.ID())
		}

		p.cur.weights = append(p.cur.weights, vals...)

	case "plane":
		return p.finishPlane()
	}

	return nil
}

func (p *parser) finishPlane() error {
	cur := p.cur
	p.cur = nil
	kind := cur.plane.Kind()

	if cur.bias == nil && (kind == KindConvolution || kind == KindSubsampling) {
		return p.fail("plane %q has no bias", cur.plane.ID())
	}

	if len(cur.parents) == 0 && kind != KindSource {
		return p.fail("plane %q is not connected to anything", cur.plane.ID())
	}

	weights := append(cur.bias, cur.weights...)

	if err := p.net.Add(cur.plane, cur.parents, weights); err != nil {
		return p.wrap(err)
	}

	return nil
}

func (p *parser) newPlane(el xml.StartElement) (Plane, error) {
	id := attr(el, "id")

	if id == "" {
		return nil, p.fail("plane has no id")
	}

	if _, ok := p.net.index[id]; ok {
		return nil, p.fail("duplicate plane id %q", id)
	}

	kind := Kind(attr(el, "type"))

	switch kind {
	case KindSource, KindConvolution, KindSubsampling, KindMaxOperator,
		KindRBF, KindMax, KindRegression:
	default:
		return nil, p.fail("plane %q has no type or unknown type %q", id, kind)
	}

	fmapSize, err := p.size(el, "featuremapsize")

	if err != nil {
		return nil, err
	}

	neuronSize, err := p.size(el, "neuronsize")

	if err != nil {
		return nil, err
	}

	if kind != KindMax && kind != KindRegression &&
		(fmapSize.Width <= 0 || fmapSize.Height <= 0 ||
			fmapSize.Width > MaxFeatureMapSize || fmapSize.Height > MaxFeatureMapSize) {
		return nil, p.fail("plane %q feature map size %s is inconsistent", id, fmapSize)
	}

	if kind != KindMax &&
		(neuronSize.Width < 0 || neuronSize.Height < 0 ||
			neuronSize.Width > MaxFeatureMapSize || neuronSize.Height > MaxFeatureMapSize) {
		return nil, p.fail("plane %q neuron window size %s is inconsistent", id, neuronSize)
	}

	plane, err := NewPlane(kind, id, fmapSize, neuronSize)

	if err != nil {
		return nil, p.wrap(fmt.Errorf("%w: %w", ErrInvalidNet, err))
	}

	return plane, nil
}

// size parses a WxH attribute, a missing attribute is the zero Size
func (p *parser) size(el xml.StartElement, name string) (Size, error) {
	val := strings.TrimSpace(attr(el, name))

	if val == "" {
		return Size{}, nil
	}

	ws, hs, ok := strings.Cut(val, "x")

	if !ok {
		return Size{}, p.fail("%s %q is not in WxH form", name, val)
	}

	w, err := strconv.Atoi(strings.TrimSpace(ws))

	if err != nil {
		return Size{}, p.fail("%s %q has invalid width", name, val)
	}

	h, err := strconv.Atoi(strings.TrimSpace(hs))

	if err != nil {
		return Size{}, p.fail("%s %q has invalid height", name, val)
	}

	return Size{Width: w, Height: h}, nil
}

// floats parses whitespace separated numbers
func (p *parser) floats(text string) ([]float64, error) {
	fields := strings.Fields(text)
	vals := make([]float64, 0, len(fields))

	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)

		if err != nil {
			return nil, p.fail("invalid weight %q", f)
		}

		vals = append(vals, v)
	}

	return vals, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}
