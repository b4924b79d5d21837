package memory_test

import (
	"testing"

	"github.com/aretw0/seee/pkg/adapters/memory"
	"github.com/aretw0/seee/pkg/ports"
	contract "github.com/aretw0/seee/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryLedger_Contract(t *testing.T) {
	ledger := memory.NewLedger()
	contract.LedgerContractTest(t, ledger, ledger)
}

func TestMemoryNotebook_Contract(t *testing.T) {
	contract.NotebookContractTest(t, memory.NewNotebook())
}
