package convnet

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTo writes the XML description of the network.  Feature map state is
// not written.
func (n *Net) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)

	fmt.Fprintf(bw, "<net name=\"%s\" creator=\"%s\">\n", escape(n.name), escape(n.creator))

	if n.info != "" {
		fmt.Fprintf(bw, "\t<info>%s</info>\n", escape(n.info))
	}

	for _, p := range n.planes {
		writePlane(bw, p)
	}

	bw.WriteString("</net>\n")

	err := bw.Flush()
	return cw.n, err
}

// String returns the XML description of the network
func (n *Net) String() string {
	var sb strings.Builder
	n.WriteTo(&sb)
	return sb.String()
}

func writePlane(w *bufio.Writer, p Plane) {
	fmt.Fprintf(w, "\t<plane id=\"%s\" type=\"%s\"", escape(p.ID()), p.Kind())

	switch p.Kind() {
	case KindMax:
	case KindRegression:
		fmt.Fprintf(w, " neuronsize=\"%s\"", p.NeuronSize())
	case KindSource:
		fmt.Fprintf(w, " featuremapsize=\"%s\"", p.FeatureMapSize())
	default:
		fmt.Fprintf(w, " featuremapsize=\"%s\" neuronsize=\"%s\"",
			p.FeatureMapSize(), p.NeuronSize())
	}

	w.WriteString(">\n")

	weights := p.Weights()

	if hasBias(p) {
		fmt.Fprintf(w, "\t\t<bias>%s</bias>\n", formatFloat(weights[0]))
		weights = weights[1:]
	}

	parents := p.Parents()

	// windows split evenly per parent, otherwise all weights go with the
	// first connection
	per := 0
	if len(parents) > 0 && len(weights)%len(parents) == 0 {
		per = len(weights) / len(parents)
	}

	for i, parent := range parents {
		var conn []float64

		switch {
		case per > 0:
			conn = weights[i*per : (i+1)*per]
		case per == 0 && i == 0:
			conn = weights
		}

		fmt.Fprintf(w, "\t\t<connection to=\"%s\">", escape(parent.ID()))

		for _, v := range conn {
			w.WriteByte(' ')
			w.WriteString(formatFloat(v))
		}

		w.WriteString(" </connection>\n")
	}

	w.WriteString("\t</plane>\n")
}

// hasBias reports whether the first weight is written as a <bias> element
func hasBias(p Plane) bool {
	switch p.Kind() {
	case KindConvolution, KindSubsampling, KindRegression:
		return len(p.Weights()) > 0
	case KindMaxOperator:
		return len(p.Weights()) == 2
	default:
		return false
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
