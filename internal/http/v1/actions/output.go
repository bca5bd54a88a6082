package actions

// ActionOutput carries the dispatcher result. Status varies with the result
// kind, so it is set per response.
type ActionOutput struct {
	Status int
	Body   ActionResponse
}
