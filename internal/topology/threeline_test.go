package topology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleThreeLine = `>ENST00000256078|ENST00000311936 | TM
MTEYKLVVVG
SSSSSMMMMM
>ENST00000556131 | GLOB
MTEAK
IIIII
`

func TestParseThreeLine(t *testing.T) {
	predictions, err := ParseThreeLine(strings.NewReader(sampleThreeLine))
	require.NoError(t, err)
	require.Len(t, predictions, 2)

	assert.Equal(t, "ENST00000256078|ENST00000311936", predictions[0].Name)
	assert.Equal(t, "TM", predictions[0].Class)
	assert.Equal(t, "MTEYKLVVVG", predictions[0].Sequence)
	assert.Equal(t, "SSSSSMMMMM", predictions[0].Topology)

	assert.Equal(t, "ENST00000556131", predictions[1].Name)
	assert.Equal(t, "GLOB", predictions[1].Class)
}

func TestParseThreeLine_LengthMismatch(t *testing.T) {
	content := ">T1 | TM\nMTEYK\nSSS\n"
	_, err := ParseThreeLine(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestParseThreeLine_UnknownLabel(t *testing.T) {
	content := ">T1 | TM\nMTEYK\nSSSQQ\n"
	_, err := ParseThreeLine(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestParseThreeLine_TruncatedRecord(t *testing.T) {
	content := ">T1 | TM\nMTEYK\n"
	_, err := ParseThreeLine(strings.NewReader(content))
	assert.Error(t, err)
}

func TestParseThreeLine_MissingHeader(t *testing.T) {
	content := "MTEYK\nMTEYK\nSSSSS\n"
	_, err := ParseThreeLine(strings.NewReader(content))
	assert.Error(t, err)
}

func TestParseThreeLineFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "predicted_topologies.3line")
	require.NoError(t, os.WriteFile(path, []byte(">T1 | TM\nMTEYK\nSSSMM\n"), 0644))

	predictions, err := ParseThreeLineFile(path)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "T1", predictions[0].Name)
	assert.Equal(t, "SSSMM", predictions[0].Topology)
}

func TestParseThreeLineFile_Missing(t *testing.T) {
	_, err := ParseThreeLineFile(filepath.Join(t.TempDir(), "nope.3line"))
	assert.Error(t, err)
}
