package namespace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// walkDSDL calls visit for every *.dsdl/*.uavcan file found under dir.
func walkDSDL(dir string, visit func(path string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".dsdl" || ext == ".uavcan" {
			visit(path)
		}

		return nil
	})
}

func readDirOS(dir string) ([]fs.DirEntry, error) {
	return os.ReadDir(dir)
}
