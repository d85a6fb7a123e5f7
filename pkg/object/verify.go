package object

import "fmt"

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	Objects int
	ByType  map[ObjectType]int
}

// Verify re-reads every stored object (Read checks that its content still
// hashes to its file name) and checks that the payload parses as its declared kind. It
// stops at the first failure.
func (s *Store) Verify() (*VerifySummary, error) {
	report := &VerifySummary{ByType: make(map[ObjectType]int)}

	hashes, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, h := range hashes {
		objType, content, err := s.Read(h)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		if _, err := Decode(objType, content); err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		report.Objects++
		report.ByType[objType]++
	}
	return report, nil
}
