// Package feature holds the relevance signal schema sent by the search engine
// and the matrix transformations applied before scoring.
package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NumSignals is the fixed number of columns in a feature matrix.
const NumSignals = 10

// Names lists the signal JSON names in column order.
var Names = [NumSignals]string{
	"cos",
	"euclid_dist",
	"sum_token_in_package",
	"words_in_header",
	"query_coverage",
	"query_dencity",
	"term_proximity",
	"word_in_url",
	"log_len_words_in_url",
	"len_url",
}

// Signal is one relevance signal value. It decodes from a JSON number or
// boolean (false is 0, true is 1); the search engine sends the header and URL
// match flags as booleans.
type Signal float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signal) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		return nil
	case "true":
		*s = 1
		return nil
	case "false":
		*s = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("signal must be a number or boolean, got %s", data)
	}
	*s = Signal(v)
	return nil
}

// Flag converts a boolean signal to 0 or 1.
func Flag(b bool) Signal {
	if b {
		return 1
	}
	return 0
}

// Record is one (query, document) pair described by ten relevance signals.
// Absent JSON keys decode to the zero value, which is each signal's default.
type Record struct {
	Cos               Signal `json:"cos"`
	EuclidDist        Signal `json:"euclid_dist"`
	SumTokenInPackage Signal `json:"sum_token_in_package"`
	WordsInHeader     Signal `json:"words_in_header"`
	QueryCoverage     Signal `json:"query_coverage"`
	QueryDensity      Signal `json:"query_dencity"`
	TermProximity     Signal `json:"term_proximity"`
	WordInURL         Signal `json:"word_in_url"`
	LogLenWordsInURL  Signal `json:"log_len_words_in_url"`
	LenURL            Signal `json:"len_url"`
}

// Row returns the signals in column order.
func (r Record) Row() [NumSignals]float64 {
	return [NumSignals]float64{
		float64(r.Cos),
		float64(r.EuclidDist),
		float64(r.SumTokenInPackage),
		float64(r.WordsInHeader),
		float64(r.QueryCoverage),
		float64(r.QueryDensity),
		float64(r.TermProximity),
		float64(r.WordInURL),
		float64(r.LogLenWordsInURL),
		float64(r.LenURL),
	}
}

// Score is the oracle output for one record. Single-output models yield
// one element.
type Score []float64
