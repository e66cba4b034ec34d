package tree

import (
	"path"
	"strings"

	"github.com/MyTechPlan/oc-client/internal/repository"
)

// ignoredDirs are directory names hidden wherever they appear in a path.
var ignoredDirs = map[string]struct{}{
	".git":          {},
	"node_modules":  {},
	"__pycache__":   {},
	".next":         {},
	".cache":        {},
	".venv":         {},
	"venv":          {},
	".pytest_cache": {},
	".mypy_cache":   {},
	".turbo":        {},
	".idea":         {},
	".vscode":       {},
}

// ignoredFiles are exact file names that are never shown.
var ignoredFiles = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"bun.lockb":         {},
	"poetry.lock":       {},
	".DS_Store":         {},
	"Thumbs.db":         {},
}

// binaryExtensions lists lower-cased extensions of files that cannot be
// edited as text.
var binaryExtensions = map[string]struct{}{
	// images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".webp": {}, ".tif": {}, ".tiff": {}, ".psd": {}, ".heic": {}, ".avif": {},
	// audio and video
	".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {}, ".aac": {}, ".m4a": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {}, ".wmv": {},
	// archives
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".xz": {},
	".7z": {}, ".rar": {}, ".zst": {}, ".jar": {},
	// fonts
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
	// executables and objects
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".o": {},
	".a": {}, ".obj": {}, ".wasm": {}, ".class": {},
	// bytecode
	".pyc": {}, ".pyo": {},
	// databases
	".db": {}, ".sqlite": {}, ".sqlite3": {},
	// documents
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
}

// Hidden reports whether an entry at the base-relative path rel is filtered
// out of the tree. Extension checks apply to files only.
func Hidden(rel string, typ repository.EntryType) bool {
	segments := strings.Split(rel, "/")
	for _, seg := range segments {
		if _, ok := ignoredDirs[seg]; ok {
			return true
		}
	}

	if typ != repository.EntryFile {
		return false
	}

	name := segments[len(segments)-1]
	if _, ok := ignoredFiles[name]; ok {
		return true
	}
	_, binary := binaryExtensions[strings.ToLower(path.Ext(name))]
	return binary
}
