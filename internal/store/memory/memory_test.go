package memory

import (
	"testing"

	"github.com/rickgao/lotto-engine/internal/store"
	"github.com/rickgao/lotto-engine/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}
