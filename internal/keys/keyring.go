package keys

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"whisperchat/internal/models"
)

// Keyring is the client's private-key custody boundary. Implementations
// decide where key material rests; nothing outside a Keyring retains a
// private key.
type Keyring interface {
	Save(identity string, kp models.KeyPair) error
	Load(identity string) (models.KeyPair, bool, error)
	// Export writes a backup of the identity's key pair. This is the only
	// sanctioned way key material leaves the ring.
	Export(identity string, w io.Writer) error
}

// FileKeyring stores key pairs in a single JSON file, created 0600.
type FileKeyring struct {
	mu   sync.Mutex
	path string
}

func NewFileKeyring(path string) *FileKeyring {
	return &FileKeyring{path: path}
}

func (r *FileKeyring) Save(identity string, kp models.KeyPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, err := r.read()
	if err != nil {
		return err
	}
	ring[identity] = kp
	return r.write(ring)
}

func (r *FileKeyring) Load(identity string) (models.KeyPair, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, err := r.read()
	if err != nil {
		return models.KeyPair{}, false, err
	}
	kp, ok := ring[identity]
	return kp, ok, nil
}

func (r *FileKeyring) Export(identity string, w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, err := r.read()
	if err != nil {
		return err
	}
	kp, ok := ring[identity]
	if !ok {
		return errors.Errorf("no key pair for %q", identity)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(struct {
		Identity string `json:"identity"`
		models.KeyPair
	}{identity, kp}), "export key pair")
}

func (r *FileKeyring) read() (map[string]models.KeyPair, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]models.KeyPair{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read keyring")
	}
	ring := map[string]models.KeyPair{}
	if err := json.Unmarshal(data, &ring); err != nil {
		return nil, errors.Wrap(err, "parse keyring")
	}
	return ring, nil
}

func (r *FileKeyring) write(ring map[string]models.KeyPair) error {
	data, err := json.MarshalIndent(ring, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode keyring")
	}
	return errors.Wrap(os.WriteFile(r.path, data, 0o600), "write keyring")
}
