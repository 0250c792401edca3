package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// document is the on-disk layout of a saved report.
type document struct {
	XMLName   xml.Name      `xml:"root"`
	RunID     string        `xml:"run_id,attr,omitempty"`
	StartTime string        `xml:"start_time,attr,omitempty"`
	EndTime   string        `xml:"end_time,attr,omitempty"`
	Completed bool          `xml:"completed,attr"`
	Failed    failedSection `xml:"failed"`
	Complete  resultSection `xml:"complete_results"`
}

type failedSection struct {
	Files []failedFile `xml:"file"`
}

type failedFile struct {
	Filename string         `xml:"filename,attr"`
	Actions  []failedAction `xml:"action"`
}

type failedAction struct {
	Name   string `xml:"name,attr"`
	Report string `xml:"report,attr"`
}

type resultSection struct {
	Files []resultFile `xml:"file"`
}

type resultFile struct {
	Filename string         `xml:"filename,attr"`
	Actions  []resultAction `xml:"action"`
}

type resultAction struct {
	Name   string `xml:"name,attr"`
	Passed bool   `xml:"passed,attr"`
	Report string `xml:"report,attr"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (r *Report) document() document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc := document{
		RunID:     r.runID,
		StartTime: formatTime(r.startTime),
		EndTime:   formatTime(r.endTime),
		Completed: r.completed,
	}
	for _, file := range r.order {
		if fails := r.failures[file]; len(fails) > 0 {
			ff := failedFile{Filename: file}
			for _, f := range fails {
				ff.Actions = append(ff.Actions, failedAction{Name: f.Action, Report: f.Message})
			}
			doc.Failed.Files = append(doc.Failed.Files, ff)
		}

		rf := resultFile{Filename: file}
		for _, e := range r.results[file] {
			rf.Actions = append(rf.Actions, resultAction{Name: e.Action, Passed: e.Passed, Report: e.Message})
		}
		doc.Complete.Files = append(doc.Complete.Files, rf)
	}
	return doc
}

// Encode writes the report as tab-indented XML.
func (r *Report) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(r.document()); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Save writes the report to path. It is a no-op when persistence is disabled.
// The file is written to a temporary sibling and renamed into place.
func (r *Report) Save(path string) error {
	if !r.Persist() {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := r.Encode(tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write report file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename report file: %w", err)
	}
	return nil
}

// Decode parses a report previously written by Encode.
func Decode(rd io.Reader) (*Report, error) {
	var doc document
	if err := xml.NewDecoder(rd).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	start, err := parseTime(doc.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	end, err := parseTime(doc.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end_time: %w", err)
	}

	r := New()
	r.runID = doc.RunID
	r.startTime = start
	r.endTime = end
	r.completed = doc.Completed

	for _, f := range doc.Complete.Files {
		if _, seen := r.results[f.Filename]; !seen {
			r.order = append(r.order, f.Filename)
		}
		for _, a := range f.Actions {
			r.results[f.Filename] = append(r.results[f.Filename], Entry{Action: a.Name, Passed: a.Passed, Message: a.Report})
		}
	}
	for _, f := range doc.Failed.Files {
		_, hasResults := r.results[f.Filename]
		_, hasFailures := r.failures[f.Filename]
		if !hasResults && !hasFailures {
			r.order = append(r.order, f.Filename)
		}
		for _, a := range f.Actions {
			r.failures[f.Filename] = append(r.failures[f.Filename], Failure{Action: a.Name, Message: a.Report})
		}
	}
	return r, nil
}

// Load reads a saved report from path.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
