package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"resume-builder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, doc interface{}) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "resume.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func sampleDoc() model.Resume {
	r := model.Empty()
	r.PersonalInfo.FullName = "Ana Souza"
	r.Skills = []model.Skill{{ID: "s1", Name: "Go"}}
	return r
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"render", "export", "validate", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeDoc(t, sampleDoc())
	out, err := execute(t, "render", "--template", "classic", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Souza")
	assert.Contains(t, out, `id="resume-preview"`)

	_, err = execute(t, "render", "--template", "fancy", path)
	assert.Error(t, err)
}

func TestRenderCommand_ToFile(t *testing.T) {
	path := writeDoc(t, sampleDoc())
	dst := filepath.Join(t.TempDir(), "out.html")
	_, err := execute(t, "render", "-o", dst, path)
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Go")
}

func TestValidateCommand(t *testing.T) {
	good := writeDoc(t, sampleDoc())
	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "All documents valid")

	bad := writeDoc(t, map[string]interface{}{"personalInfo": map[string]string{}})
	out, err = execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "✓ "+good)
}

func TestValidateCommand_ArrayOfDocuments(t *testing.T) {
	path := writeDoc(t, []interface{}{sampleDoc(), map[string]interface{}{"summary": 42}})
	out, err := execute(t, "validate", path)
	assert.ErrorContains(t, err, "1 of 2 documents invalid")
	assert.Contains(t, out, "✗ "+path+"[1]")
	assert.NotContains(t, out, path+"[0]:")

	path = writeDoc(t, []interface{}{sampleDoc(), sampleDoc()})
	out, err = execute(t, "-v", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+path+"[1]")
	assert.Contains(t, out, "All documents valid")
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	_, err := execute(t, "migrate", "--database-url", "")
	assert.ErrorContains(t, err, "DATABASE_URL")
}
