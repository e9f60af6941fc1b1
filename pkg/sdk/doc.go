// Package inkwell is the Go client for the inkwell journal Q&A API.
//
// Basic usage:
//
//	client, err := inkwell.New("http://localhost:8080", inkwell.WithAPIKey("secret"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := client.Ask(ctx, inkwell.AskRequest{
//		UserID:  "u1",
//		Message: "how did I sleep last week?",
//	})
package inkwell
