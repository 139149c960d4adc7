package arena

import "fmt"

// Example demonstrates basic arena usage.
func Example() {
	a := NewArena()
	defer a.Free() // always clean up

	buf := a.AllocBytes(1024)
	fmt.Printf("allocated buffer of size: %d\n", len(buf))

	ptr := Alloc[int](a)
	*ptr = 42
	fmt.Printf("allocated int with value: %d\n", *ptr)

	slice := AllocSlice[int](a, 5)
	for i := range slice {
		slice[i] = i * 2
	}
	fmt.Printf("allocated slice: %v\n", slice)

	a.Clear() // O(1) reuse; everything above is now invalid
	fmt.Printf("blocks retained after clear: %d\n", a.NumBlocks())

	// Output:
	// allocated buffer of size: 1024
	// allocated int with value: 42
	// allocated slice: [0 2 4 6 8]
	// blocks retained after clear: 1
}

// ExampleArena_webServer demonstrates arena usage in a request-scoped
// allocation pattern.
func ExampleArena_webServer() {
	handleRequest := func(requestID int) {
		a := NewArena(WithMinBlockSize(4096))
		defer a.Free()

		requestData := AllocSlice[byte](a, 1024)
		responseBuffer := AllocSlice[byte](a, 2048)

		copy(requestData, []byte("request data"))
		copy(responseBuffer, []byte("response data"))

		fmt.Printf("request %d processed\n", requestID)
	}

	for i := 1; i <= 3; i++ {
		handleRequest(i)
	}

	// Output:
	// request 1 processed
	// request 2 processed
	// request 3 processed
}

// ExampleArena_Clear demonstrates reusing an arena across rounds of work.
func ExampleArena_Clear() {
	a := NewArena(WithMinBlockSize(1024))
	defer a.Free()

	for round := 1; round <= 3; round++ {
		for i := 0; i < 5; i++ {
			Alloc[int64](a)
		}
		fmt.Printf("round %d blocks: %d\n", round, a.NumBlocks())
		a.Clear()
	}

	// Output:
	// round 1 blocks: 1
	// round 2 blocks: 1
	// round 3 blocks: 1
}
