package embedding

import (
	"os"
	"path/filepath"
	"runtime"
)

// ModelLocator finds the ONNX model, vocabulary, and runtime shared library
// files used by Provider's lazy-loaded model.
type ModelLocator struct {
	BaseDir string
}

// NewModelLocator creates a locator rooted at the given data directory.
func NewModelLocator(baseDir string) *ModelLocator {
	return &ModelLocator{BaseDir: filepath.Join(baseDir, "models")}
}

// ModelPath returns the path to the ONNX model file for modelName.
func (l *ModelLocator) ModelPath(modelName string) string {
	return filepath.Join(l.BaseDir, modelName, "model.onnx")
}

// VocabPath returns the path to the vocabulary file for modelName.
func (l *ModelLocator) VocabPath(modelName string) string {
	return filepath.Join(l.BaseDir, modelName, "vocab.txt")
}

// SharedLibraryPath locates the ONNX runtime shared library, checking an
// environment variable override before OS-specific well-known install paths.
func (l *ModelLocator) SharedLibraryPath() string {
	if envPath := os.Getenv("ONNXRUNTIME_LIB_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
			filepath.Join(l.BaseDir, "..", "lib", "libonnxruntime.dylib"),
		}
	case "linux":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
			filepath.Join(l.BaseDir, "..", "lib", "libonnxruntime.so"),
		}
	case "windows":
		candidates = []string{
			`C:\Program Files\onnxruntime\lib\onnxruntime.dll`,
			filepath.Join(l.BaseDir, "..", "lib", "onnxruntime.dll"),
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ModelExists reports whether the model file for modelName is present.
func (l *ModelLocator) ModelExists(modelName string) bool {
	_, err := os.Stat(l.ModelPath(modelName))
	return err == nil
}

// EnsureModelDir creates the on-disk directory for modelName.
func (l *ModelLocator) EnsureModelDir(modelName string) error {
	return os.MkdirAll(filepath.Join(l.BaseDir, modelName), 0o755)
}
