// Package gemini provides the Gemini API implementation of ai.Answerer.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithModel("gemini-2.5-flash"))
//	provider, err := gemini.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	answer, err := provider.Answerer().GenerateGroundedAnswer(ctx, docContext, "What does it say?")
//
// The API key comes from the config or from GEMINI_API_KEY / GOOGLE_API_KEY.
// Setting Config.Host points the client at a different endpoint.
package gemini
