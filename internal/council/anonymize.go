package council

// LabelSet is the bidirectional label mapping for one run. Labels are
// assigned over successful drafts in backend-configuration order, so the
// mapping is reproducible given the same draft set. Built once, never
// mutated, and never included in any ranking prompt.
type LabelSet struct {
	labels     []string
	byLabel    map[string]string
	byProducer map[string]string
}

// draftLabel names the nth draft: A..Z, then AA, AB, ... so the label space
// never runs out however many backends are configured.
func draftLabel(n int) string {
	var letters []byte
	for n >= 0 {
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n = n/26 - 1
	}
	return "Response " + string(letters)
}

// AssignLabels labels the successful drafts "Response A", "Response B", ...
// in the order given. Failed drafts get no label.
func AssignLabels(drafts []Draft) *LabelSet {
	s := &LabelSet{
		byLabel:    make(map[string]string),
		byProducer: make(map[string]string),
	}
	for _, d := range drafts {
		if d.Status != StatusOK {
			continue
		}
		label := draftLabel(len(s.labels))
		s.labels = append(s.labels, label)
		s.byLabel[label] = d.ProducerID
		s.byProducer[d.ProducerID] = label
	}
	return s
}

// Labels returns the labels in assignment order.
func (s *LabelSet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Producer resolves a label to its backend id.
func (s *LabelSet) Producer(label string) (string, bool) {
	id, ok := s.byLabel[label]
	return id, ok
}

// Label resolves a backend id to its label.
func (s *LabelSet) Label(producerID string) (string, bool) {
	l, ok := s.byProducer[producerID]
	return l, ok
}

// Contains reports whether the label belongs to this run.
func (s *LabelSet) Contains(label string) bool {
	_, ok := s.byLabel[label]
	return ok
}

// Len is the number of labeled drafts.
func (s *LabelSet) Len() int { return len(s.labels) }

// Map returns a copy of label -> producer id for the presentation layer.
func (s *LabelSet) Map() map[string]string {
	out := make(map[string]string, len(s.byLabel))
	for k, v := range s.byLabel {
		out[k] = v
	}
	return out
}
