// Package identity resolves which identity is active for a browser session.
package identity

import "fmt"

// Kind discriminates the identity variants
type Kind int

const (
	KindGuest Kind = iota
	KindParent
	KindChild
	KindDemo
)

func (k Kind) String() string {
	switch k {
	case KindGuest:
		return "guest"
	case KindParent:
		return "parent"
	case KindChild:
		return "child"
	case KindDemo:
		return "demo"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Identity is the single active identity of a session. ParentID is set for
// parent and child identities, LearnerID only for child identities.
type Identity struct {
	Kind      Kind
	ParentID  string
	LearnerID string
}

func Guest() Identity { return Identity{Kind: KindGuest} }

func Demo() Identity { return Identity{Kind: KindDemo} }

func Parent(parentID string) Identity {
	return Identity{Kind: KindParent, ParentID: parentID}
}

func Child(learnerID, parentID string) Identity {
	return Identity{Kind: KindChild, LearnerID: learnerID, ParentID: parentID}
}

// IsAuthenticated is true for parent and child identities
func (i Identity) IsAuthenticated() bool {
	return i.Kind == KindParent || i.Kind == KindChild
}

func (i Identity) String() string {
	switch i.Kind {
	case KindParent:
		return "parent:" + i.ParentID
	case KindChild:
		return "child:" + i.LearnerID
	}
	return i.Kind.String()
}
