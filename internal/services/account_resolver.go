package services

import (
	"context"
	"log"

	"github.com/retailops/backoffice/internal/models"
)

type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	Found
	CreatedDefault
)

func (k ResolutionKind) String() string {
	switch k {
	case Found:
		return "found"
	case CreatedDefault:
		return "created_default"
	}
	return "unresolved"
}

// Resolution is the outcome of looking up one leg's account.
type Resolution struct {
	Kind      ResolutionKind
	AccountID int64
}

func (r Resolution) Resolved() bool {
	return r.Kind != Unresolved
}

// AccountSpec describes which account a posting leg needs.
type AccountSpec struct {
	Type models.AccountType
	// Names are tried in order, case-insensitively.
	Names []string
	// TypeFallback allows the first active account of Type when no name
	// matches.
	TypeFallback bool
	// CreateName, when set, is provisioned if nothing else matched.
	CreateName string
}

type AccountResolver struct {
	catalog AccountCatalog
}

func NewAccountResolver(catalog AccountCatalog) *AccountResolver {
	return &AccountResolver{catalog: catalog}
}

// Resolve walks name match, type fallback and default creation in that
// order. Only lookup failures are returned as errors; a miss is Unresolved.
func (r *AccountResolver) Resolve(ctx context.Context, storeID int64, spec AccountSpec) (Resolution, error) {
	for _, name := range spec.Names {
		if name == "" {
			continue
		}
		id, ok, err := r.catalog.FindAccountByName(ctx, storeID, name, spec.Type)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Kind: Found, AccountID: id}, nil
		}
	}

	if spec.TypeFallback {
		id, ok, err := r.catalog.FindAccountByType(ctx, storeID, spec.Type)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Kind: Found, AccountID: id}, nil
		}
	}

	if spec.CreateName != "" {
		acct, err := r.catalog.CreateAccount(ctx, storeID, spec.CreateName, spec.Type)
		if err != nil {
			return Resolution{}, err
		}
		// The upsert hands back whatever already holds the name.
		if acct.Type != spec.Type || !acct.IsActive {
			log.Printf("[CHART] Account %q of store %d is %s (active=%t), wanted active %s",
				acct.Name, storeID, acct.Type, acct.IsActive, spec.Type)
			return Resolution{Kind: Unresolved}, nil
		}
		return Resolution{Kind: CreatedDefault, AccountID: acct.ID}, nil
	}

	return Resolution{Kind: Unresolved}, nil
}
