package config

import (
	"errors"
	"os"
	"sync"
	"testing"
)

const managerProfilesV1 = `
[dev]
env = "dev"
host = "alpha"
port = 1111
`

const managerProfilesV2 = `
[dev]
env = "dev"
host = "beta"
port = 2222
`

func newTestManager(t *testing.T, content string) (*Manager, string) {
	t.Helper()

	path := writeProfiles(t, "profiles.toml", content)
	manager, err := NewManager(&Loader{ProfilePath: path, Environment: emptyEnv()})
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return manager, path
}

func rewriteProfiles(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("rewrite profile file: %v", err)
	}
}

func TestManagerInitialLoad(t *testing.T) {
	manager, _ := newTestManager(t, managerProfilesV1)

	settings := manager.Active()
	if settings.Host != "alpha" || settings.Port != 1111 {
		t.Fatalf("unexpected initial settings: %+v", settings)
	}
}

func TestReloadSwapsSettings(t *testing.T) {
	manager, path := newTestManager(t, managerProfilesV1)

	before := manager.Active()
	rewriteProfiles(t, path, managerProfilesV2)

	after, err := manager.Reload()
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}

	if after.Host != "beta" || after.Port != 2222 {
		t.Fatalf("expected reloaded settings, got %+v", after)
	}
	if manager.Active() != after {
		t.Fatalf("expected Active to return the reloaded instance")
	}
	// The old instance a caller may still hold is untouched.
	if before.Host != "alpha" || before.Port != 1111 {
		t.Fatalf("previous settings were mutated: %+v", before)
	}
}

func TestReloadFailureRetainsActiveSettings(t *testing.T) {
	manager, path := newTestManager(t, managerProfilesV1)

	rewriteProfiles(t, path, `
[dev]
env = "dev"
port = "abc"
`)

	_, err := manager.Reload()
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	settings := manager.Active()
	if settings.Host != "alpha" || settings.Port != 1111 {
		t.Fatalf("expected old settings to remain active, got %+v", settings)
	}
}

func TestReloadFailureOnMissingFileRetainsActiveSettings(t *testing.T) {
	manager, path := newTestManager(t, managerProfilesV1)

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove profile file: %v", err)
	}

	_, err := manager.Reload()
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if manager.Active().Port != 1111 {
		t.Fatalf("expected old settings to remain active")
	}
}

// TestConcurrentReadersDuringReload checks the swap is atomic: host and port
// change together in the profile file, so a reader must never observe a pair
// from different versions.
func TestConcurrentReadersDuringReload(t *testing.T) {
	manager, path := newTestManager(t, managerProfilesV1)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, 8)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := manager.Active()
				v1 := s.Host == "alpha" && s.Port == 1111
				v2 := s.Host == "beta" && s.Port == 2222
				if !v1 && !v2 {
					select {
					case errs <- s.Addr():
					default:
					}
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			rewriteProfiles(t, path, managerProfilesV2)
		} else {
			rewriteProfiles(t, path, managerProfilesV1)
		}
		if _, err := manager.Reload(); err != nil {
			t.Fatalf("Reload returned error: %v", err)
		}
	}

	close(stop)
	wg.Wait()

	select {
	case mixed := <-errs:
		t.Fatalf("reader observed torn settings: %s", mixed)
	default:
	}
}
