package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ownedResource struct{ owner string }

func (r ownedResource) OwnerID() string { return r.owner }

func TestOwnerOnly(t *testing.T) {
	res := ownedResource{owner: "user-1"}

	assert.True(t, OwnerOnly("user-1", ActionUpdate, res))
	assert.True(t, OwnerOnly("user-1", ActionDelete, res))
	assert.False(t, OwnerOnly("user-2", ActionUpdate, res))
	assert.False(t, OwnerOnly("", ActionDelete, res), "anonymous requesters are never owners")
	assert.False(t, OwnerOnly("", ActionUpdate, ownedResource{owner: ""}),
		"empty owner must not match empty requester")
}
