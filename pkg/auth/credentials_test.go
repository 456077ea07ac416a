package auth

import (
	"errors"
	"testing"
	"time"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := NewMockStore()
	manager := NewMockManagerWithStores(store)

	account := &Account{
		Username: "testuser",
		APIKey:   "abcdef1234567890abcdef12",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if retrieved.Username != "testuser" {
		t.Errorf("Expected username testuser, got %s", retrieved.Username)
	}
	if retrieved.APIKey != "abcdef1234567890abcdef12" {
		t.Errorf("Retrieved API key does not match stored value")
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager := NewMockManagerWithStores(NewMockStore())

	if err := manager.Store(&Account{APIKey: "key"}); err == nil {
		t.Error("Expected error for missing username")
	}
	if err := manager.Store(&Account{Username: "user"}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestManagerRetrieveNotFound(t *testing.T) {
	manager := NewMockManagerWithStores(NewMockStore())

	if _, err := manager.Retrieve("nobody"); err == nil {
		t.Error("Expected error for unknown account")
	}
}

func TestManagerFallsBackToSecondStore(t *testing.T) {
	broken := NewMockStore()
	broken.RetrieveError = errors.New("keyring unavailable")
	broken.StoreError = errors.New("keyring unavailable")

	fallback := NewMockStore()
	manager := NewMockManagerWithStores(broken, fallback)

	account := &Account{Username: "testuser", APIKey: "abcdef1234567890abcdef12"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Store should fall back to the second store: %v", err)
	}
	if broken.Count() != 0 {
		t.Error("Broken store should hold nothing")
	}
	if fallback.Count() != 1 {
		t.Error("Fallback store should hold the account")
	}

	if _, err := manager.Retrieve("testuser"); err != nil {
		t.Errorf("Retrieve should fall back to the second store: %v", err)
	}
}

func TestManagerStoreAllBackendsFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("store unavailable")
	manager := NewMockManagerWithStores(broken)

	account := &Account{Username: "testuser", APIKey: "abcdef1234567890abcdef12"}
	if err := manager.Store(account); err == nil {
		t.Error("Expected error when every store fails")
	}
}

func TestManagerList(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewMockManagerWithStores(first, second)

	older := &Account{Username: "shared", APIKey: "old-key-1234567890", LastModified: time.Now().Add(-time.Hour)}
	newer := &Account{Username: "shared", APIKey: "new-key-1234567890", LastModified: time.Now()}
	only := &Account{Username: "solo", APIKey: "solo-key-1234567890", LastModified: time.Now()}

	if err := first.Store(older); err != nil {
		t.Fatal(err)
	}
	if err := second.Store(newer); err != nil {
		t.Fatal(err)
	}
	if err := second.Store(only); err != nil {
		t.Fatal(err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}

	for _, account := range accounts {
		if account.Username == "shared" && account.APIKey != "new-key-1234567890" {
			t.Error("List should prefer the most recently modified duplicate")
		}
	}
}

func TestManagerDelete(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewMockManagerWithStores(first, second)

	account := &Account{Username: "testuser", APIKey: "abcdef1234567890abcdef12"}
	if err := first.Store(account); err != nil {
		t.Fatal(err)
	}
	if err := second.Store(account); err != nil {
		t.Fatal(err)
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if first.Exists("testuser") || second.Exists("testuser") {
		t.Error("Delete should remove the account from every store")
	}

	if err := manager.Delete("testuser"); err == nil {
		t.Error("Expected error deleting an account that no longer exists")
	}
}

func TestManagerDeleteAll(t *testing.T) {
	store := NewMockStore()
	manager := NewMockManagerWithStores(store)

	for _, name := range []string{"one", "two", "three"} {
		if err := manager.Store(&Account{Username: name, APIKey: "key-1234567890abcdef"}); err != nil {
			t.Fatal(err)
		}
	}

	if err := manager.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Expected empty store after DeleteAll, got %d accounts", store.Count())
	}
}

func TestRetrieveDefaultFromEnvironment(t *testing.T) {
	t.Setenv("E621DL_USERNAME", "envuser")
	t.Setenv("E621DL_API_KEY", "env-key-1234567890abcdef")

	manager := NewMockManagerWithStores(NewMockStore(), NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if account.Username != "envuser" {
		t.Errorf("Expected environment account, got %s", account.Username)
	}
}

func TestRetrieveDefaultFromStoredAccounts(t *testing.T) {
	t.Setenv("E621DL_USERNAME", "")
	t.Setenv("E621DL_API_KEY", "")

	store := NewMockStore()
	manager := NewMockManagerWithStores(store, NewEnvironmentStore())

	if _, err := manager.RetrieveDefault(); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound with no accounts, got %v", err)
	}

	if err := store.Store(&Account{Username: "stored", APIKey: "key-1234567890abcdef", LastModified: time.Now()}); err != nil {
		t.Fatal(err)
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("RetrieveDefault failed: %v", err)
	}
	if account.Username != "stored" {
		t.Errorf("Expected stored account, got %s", account.Username)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{
		Username: "testuser",
		APIKey:   "abcdef1234567890abcdef12",
	}

	sanitized := SanitizeAccount(account)
	if sanitized.APIKey != "abcd...ef12" {
		t.Errorf("Expected masked key abcd...ef12, got %s", sanitized.APIKey)
	}
	if sanitized.Username != "testuser" {
		t.Errorf("Username should survive sanitizing, got %s", sanitized.Username)
	}
	if account.APIKey != "abcdef1234567890abcdef12" {
		t.Error("Sanitizing must not mutate the original account")
	}

	short := SanitizeAccount(&Account{Username: "u", APIKey: "tiny"})
	if short.APIKey != "********" {
		t.Errorf("Short keys should be fully masked, got %s", short.APIKey)
	}

	if SanitizeAccount(nil) != nil {
		t.Error("Sanitizing nil should return nil")
	}
}

func TestMockStoreCopiesAccounts(t *testing.T) {
	store := NewMockStore()
	account := &Account{Username: "testuser", APIKey: "original-key-12345678"}
	if err := store.Store(account); err != nil {
		t.Fatal(err)
	}

	account.APIKey = "mutated"

	retrieved, err := store.Retrieve("testuser")
	if err != nil {
		t.Fatal(err)
	}
	if retrieved.APIKey != "original-key-12345678" {
		t.Error("Store must copy accounts rather than alias caller memory")
	}
}
