package permissions

// PageFlags maps proposal operation flags onto the page-permission
// vocabulary used by the document layer. A pure projection, no extra
// decision logic.
func PageFlags(f OperationFlags) PagePermissionFlags {
	return PagePermissionFlags{
		Read:             f.View,
		Comment:          f.Comment,
		EditContent:      f.Edit,
		EditPosition:     f.Edit,
		Delete:           f.Delete,
		CreatePoll:       f.CreateVote,
		GrantPermissions: f.MakePublic,
	}
}
