package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dbdesign/internal/codegen"
)

// Models keeps one Eloquent model file per table in Root.
type Models struct {
	Root string
	Log  *zap.Logger
}

func (m *Models) log() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

// Sync creates the model for a created or renamed table. A rename moves the
// old model file when the new one does not exist yet. Other actions are
// ignored.
func (m *Models) Sync(req *codegen.ChangeRequest) error {
	if req.Action != codegen.ActionCreate && req.Action != codegen.ActionRename {
		return nil
	}
	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", m.Root)
	}
	target := filepath.Join(m.Root, codegen.ModelFile(req.Name))
	if exists(target) {
		return nil
	}

	if req.Action == codegen.ActionRename {
		old := filepath.Join(m.Root, codegen.ModelFile(req.OldName))
		if old != target && exists(old) {
			if err := os.Rename(old, target); err != nil {
				return errors.Wrapf(err, "rename model %s", filepath.Base(old))
			}
			m.log().Info("model renamed",
				zap.String("from", codegen.ModelName(req.OldName)),
				zap.String("to", codegen.ModelName(req.Name)))
			return nil
		}
	}

	src, err := codegen.ModelSource(req.Name)
	if err != nil {
		return errors.Wrapf(err, "render model for %s", req.Name)
	}
	if err := os.WriteFile(target, []byte(src), 0o644); err != nil {
		return errors.Wrapf(err, "write model %s", filepath.Base(target))
	}
	m.log().Info("model created", zap.String("model", codegen.ModelName(req.Name)))
	return nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
