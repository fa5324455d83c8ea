package badger

import "fmt"

// Key prefixes for different data types
const (
	evidenceUnitPrefix = "evunit"
	evidenceTypePrefix = "evtype"
)

// makeUnitKey generates the primary key for an evidence unit.
func makeUnitKey(evidenceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", evidenceUnitPrefix, evidenceID))
}

// makeTypeKey generates a composite key for the type index.
// Format: prefix:evidence_type:evidence_id
func makeTypeKey(evidenceType, evidenceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", evidenceTypePrefix, evidenceType, evidenceID))
}

// makePartialTypeKey generates a partial key for type-scoped iteration.
func makePartialTypeKey(evidenceType string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", evidenceTypePrefix, evidenceType))
}
