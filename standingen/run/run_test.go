package run_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/toejough/standin/standingen/run"
)

// fakeFileSystem is an in-memory FileSystem for generator tests.
type fakeFileSystem struct {
	files map[string][]byte
}

func newFakeFileSystem() *fakeFileSystem {
	return &fakeFileSystem{files: map[string][]byte{}}
}

func (fs *fakeFileSystem) Glob(pattern string) ([]string, error) {
	names := []string{}

	for name := range fs.files {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, err
		}

		if matched {
			names = append(names, name)
		}
	}

	return names, nil
}

func (fs *fakeFileSystem) ReadFile(name string) ([]byte, error) {
	data, ok := fs.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

func (fs *fakeFileSystem) WriteFile(name string, data []byte, _ os.FileMode) error {
	fs.files[name] = data

	return nil
}

// envFor returns a getEnv func with GOPACKAGE set to pkg.
func envFor(pkg string) func(string) string {
	return func(key string) string {
		if key == "GOPACKAGE" {
			return pkg
		}

		return ""
	}
}

const storeSource = `package storage

// Store is the interface under test.
type Store interface {
	Get(key string) (string, error)
	Put(key, value string)
	Count() int
	Describe(labels ...string) string
}
`

// TestRun_GeneratesStandinForInterface verifies the generated double's
// structure: type, constructor, accessor, and one method per policy.
func TestRun_GeneratesStandinForInterface(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["store.go"] = []byte(storeSource)

	out := &bytes.Buffer{}

	err := run.Run([]string{"standingen", "Store"}, envFor("storage"), fileSys, out)
	g.Expect(err).NotTo(HaveOccurred())

	generated := string(fileSys.files["storestandin_test.go"])

	g.Expect(generated).To(ContainSubstring("// Code generated by standingen; DO NOT EDIT."))
	g.Expect(generated).To(ContainSubstring("package storage"))
	g.Expect(generated).To(ContainSubstring("type StoreStandin struct"))
	g.Expect(generated).To(ContainSubstring("func NewStoreStandin(t standin.TestReporter) *StoreStandin"))
	g.Expect(generated).To(ContainSubstring("func (d *StoreStandin) Mock() *standin.Mock"))

	// Multi-result method goes through CallValues with per-result downcasts.
	g.Expect(generated).To(ContainSubstring("func (d *StoreStandin) Get(a1 string) (string, error)"))
	g.Expect(generated).To(ContainSubstring("results := standin.CallValues(d.mock, d.Get, a1)"))
	g.Expect(generated).To(ContainSubstring("r1, _ = results[1].(error)"))

	// Void method dispatches through CallVoid.
	g.Expect(generated).To(ContainSubstring("func (d *StoreStandin) Put(a1 string, a2 string)"))
	g.Expect(generated).To(ContainSubstring("standin.CallVoid(d.mock, d.Put, a1, a2)"))

	// Single-result method dispatches through the typed required call.
	g.Expect(generated).To(ContainSubstring("func (d *StoreStandin) Count() int"))
	g.Expect(generated).To(ContainSubstring("return standin.Call[int](d.mock, d.Count)"))

	// Variadic method flattens its trailing arguments into the bundle.
	g.Expect(generated).To(ContainSubstring("func (d *StoreStandin) Describe(a1 ...string) string"))
	g.Expect(generated).To(ContainSubstring("args := []any{}"))
	g.Expect(generated).To(ContainSubstring("args = append(args, v)"))
	g.Expect(generated).To(ContainSubstring("return standin.Call[string](d.mock, d.Describe, args...)"))
}

// TestRun_CustomName verifies the --name flag overrides the generated type
// name and the output file name.
func TestRun_CustomName(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["store.go"] = []byte(storeSource)

	err := run.Run(
		[]string{"standingen", "Store", "--name", "FakeStore"},
		envFor("storage"), fileSys, &bytes.Buffer{},
	)
	g.Expect(err).NotTo(HaveOccurred())

	generated := string(fileSys.files["fakestore_test.go"])
	g.Expect(generated).To(ContainSubstring("type FakeStore struct"))
	g.Expect(generated).To(ContainSubstring("func NewFakeStore(t standin.TestReporter) *FakeStore"))
}

// TestRun_InterfaceNotFound verifies a helpful error when the interface
// isn't declared in the package.
func TestRun_InterfaceNotFound(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["store.go"] = []byte(storeSource)

	err := run.Run([]string{"standingen", "Missing"}, envFor("storage"), fileSys, &bytes.Buffer{})

	g.Expect(err).To(MatchError(run.ErrInterfaceNotFound))
}

// TestRun_EmbeddedInterface_Unsupported verifies embedded interfaces are
// rejected rather than silently mis-generated.
func TestRun_EmbeddedInterface_Unsupported(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["closer.go"] = []byte(`package storage

import "io"

type ReadCloser interface {
	io.Closer
	Read() string
}
`)

	err := run.Run([]string{"standingen", "ReadCloser"}, envFor("storage"), fileSys, &bytes.Buffer{})

	g.Expect(err).To(MatchError(run.ErrUnsupportedInterface))
}

// TestRun_MissingGoPackage verifies the go:generate environment requirement.
func TestRun_MissingGoPackage(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["store.go"] = []byte(storeSource)

	err := run.Run([]string{"standingen", "Store"}, envFor(""), fileSys, &bytes.Buffer{})

	g.Expect(err).To(MatchError(run.ErrMissingEnv))
}

// TestRun_UpToDateFile_SkipsRewrite verifies re-running against unchanged
// input reports up-to-date instead of rewriting.
func TestRun_UpToDateFile_SkipsRewrite(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fileSys := newFakeFileSystem()
	fileSys.files["store.go"] = []byte(storeSource)

	g.Expect(run.Run([]string{"standingen", "Store"}, envFor("storage"), fileSys, &bytes.Buffer{})).
		To(Succeed())

	out := &bytes.Buffer{}
	g.Expect(run.Run([]string{"standingen", "Store"}, envFor("storage"), fileSys, out)).
		To(Succeed())

	g.Expect(out.String()).To(ContainSubstring("up to date"))
}
