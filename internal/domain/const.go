package domain

const (
	EditorIdCtxKey = "site-editorId"
)

const (
	DefaultPageSize = 6
)
