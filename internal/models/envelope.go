package models

import "fmt"

// DocumentEnvelope is the tagged JSON form of a Document, used wherever a
// document crosses a process boundary (job variables, API bodies, storage).
type DocumentEnvelope struct {
	Kind  DocumentKind `json:"kind"`
	Quote *Quote       `json:"quote,omitempty"`
	RFQ   *RFQ         `json:"rfq,omitempty"`
}

// Wrap returns the envelope of doc. A nil doc yields the zero envelope.
func Wrap(doc Document) DocumentEnvelope {
	switch d := doc.(type) {
	case *Quote:
		return DocumentEnvelope{Kind: KindQuote, Quote: d}
	case *RFQ:
		return DocumentEnvelope{Kind: KindRFQ, RFQ: d}
	}
	return DocumentEnvelope{}
}

// Document unwraps the envelope. The payload must match Kind.
func (e DocumentEnvelope) Document() (Document, error) {
	switch e.Kind {
	case KindQuote:
		if e.Quote == nil || e.RFQ != nil {
			return nil, fmt.Errorf("document envelope: quote payload missing or mixed")
		}
		return e.Quote, nil
	case KindRFQ:
		if e.RFQ == nil || e.Quote != nil {
			return nil, fmt.Errorf("document envelope: rfq payload missing or mixed")
		}
		return e.RFQ, nil
	}
	return nil, fmt.Errorf("document envelope: unknown kind %q", e.Kind)
}
