package seee_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/seee"
)

// ExampleNew demonstrates driving the engine directly, without persistence.
func ExampleNew() {
	eng, err := seee.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s := eng.NewSession("example", "")
	fmt.Println(eng.Prompt(s).Text)

	s, msg := eng.Advance(ctx, s, "procrastination")
	fmt.Println(msg.Text)

	_, msg = eng.Advance(ctx, s, "to keep me safe from failure")
	fmt.Println(msg.Text)

	// Output:
	// What idea would you like to explore? Name it in a few words.
	// Let's explore «procrastination».
	//
	// How do you think, with what purpose was this idea introduced into your mind?
	// What parts does this idea consist of? List them separated by commas.
}
