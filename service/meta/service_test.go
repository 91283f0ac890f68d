package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestServiceLoad(t *testing.T) {
	baseDir := t.TempDir()
	document := `
tuning:
  topGrace: 15s
spoolPath: ${env.PROCADJ_TEST_SPOOL}
`
	assert.Nil(t, os.WriteFile(filepath.Join(baseDir, "engine.yaml"), []byte(document), 0o644))
	assert.Nil(t, os.Setenv("PROCADJ_TEST_SPOOL", "/var/spool/procadj"))
	defer os.Unsetenv("PROCADJ_TEST_SPOOL")

	type config struct {
		Tuning struct {
			TopGrace string `yaml:"topGrace"`
		} `yaml:"tuning"`
		SpoolPath string `yaml:"spoolPath"`
	}

	service := New(afs.New(), baseDir)
	ctx := context.Background()

	exists, err := service.Exists(ctx, "engine.yaml")
	assert.Nil(t, err)
	assert.True(t, exists)

	var actual config
	assert.Nil(t, service.Load(ctx, "engine.yaml", &actual))
	assert.EqualValues(t, "15s", actual.Tuning.TopGrace)
	assert.EqualValues(t, "/var/spool/procadj", actual.SpoolPath)

	exists, err = service.Exists(ctx, "missing.yaml")
	assert.Nil(t, err)
	assert.False(t, exists)
}
