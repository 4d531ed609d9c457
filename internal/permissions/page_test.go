package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageFlags(t *testing.T) {
	flags := PageFlags(OperationFlags{
		View:       true,
		Comment:    true,
		Edit:       true,
		Delete:     true,
		CreateVote: true,
		MakePublic: true,
		// Proposal-only bits with no page counterpart.
		Evaluate:  true,
		ViewNotes: true,
	})
	assert.Equal(t, PagePermissionFlags{
		Read:             true,
		Comment:          true,
		EditContent:      true,
		EditPosition:     true,
		Delete:           true,
		CreatePoll:       true,
		GrantPermissions: true,
	}, flags)

	assert.Equal(t, PagePermissionFlags{}, PageFlags(OperationFlags{}))
}
