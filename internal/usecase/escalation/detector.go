// Package escalation decides when an answer hands off to humans and notifies them.
package escalation

import "strings"

// Detector inspects a model answer for an escalation signal.
type Detector interface {
	Detect(answer string) bool
}

// ContactAddressDetector fires when the answer mentions the support address
// (case-insensitive substring match). Paraphrased contact details are missed.
type ContactAddressDetector struct {
	address string
}

// NewContactAddressDetector creates a detector for address. An empty address never fires.
func NewContactAddressDetector(address string) *ContactAddressDetector {
	return &ContactAddressDetector{address: strings.ToLower(strings.TrimSpace(address))}
}

// Detect implements Detector.
func (d *ContactAddressDetector) Detect(answer string) bool {
	if d.address == "" {
		return false
	}
	return strings.Contains(strings.ToLower(answer), d.address)
}
