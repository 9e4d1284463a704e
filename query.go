package facedetect

import (
	"fmt"
	"io"
)

// Query writes the session's cascade, network and detection parameters in
// human readable format
func (s *Session) Query(w io.Writer) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	p := s.params

	fmt.Fprintf(w, "Cascade: %s\n", s.cascadePath)
	fmt.Fprintf(w, "Detection: scale factor %v, min neighbors %d, flags %d, face size %d-%d, equalize %v\n",
		p.ScaleFactor, p.MinNeighbors, p.Flags, p.MinSize, p.MaxSize, p.Equalize)
	fmt.Fprintf(w, "Faces: score threshold %v, NMS threshold %v, max faces %d\n",
		p.Faces.ScoreThreshold, p.Faces.NMSThreshold, p.Faces.MaxFaces)

	if s.net == nil {
		fmt.Fprintf(w, "Network: none, cascade only\n")
		return nil
	}

	fmt.Fprintf(w, "Network: %s, name %q, creator %q\n", s.netPath, s.net.Name(), s.net.Creator())
	fmt.Fprintf(w, "Input: %s, mean %v, std %v, letterbox %v\n",
		s.net.InputSize(), p.InputMean, p.InputStd, p.Letterbox)

	if info := s.net.Info(); info != "" {
		fmt.Fprintf(w, "Info: %s\n", info)
	}

	return s.net.Summary(w)
}
