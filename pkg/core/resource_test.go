package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceType_Valid(t *testing.T) {
	for _, rt := range KnownResourceTypes {
		assert.True(t, rt.Valid(), "expected %q to be valid", rt)
	}
	assert.False(t, ResourceType("widget").Valid())
	assert.False(t, ResourceType("").Valid())
}

func TestResourceType_Refable(t *testing.T) {
	refable := map[ResourceType]bool{
		ResourceModel:    true,
		ResourceSeed:     true,
		ResourceSnapshot: true,
	}
	for _, rt := range KnownResourceTypes {
		assert.Equal(t, refable[rt], rt.Refable(), "refable mismatch for %q", rt)
	}
}
