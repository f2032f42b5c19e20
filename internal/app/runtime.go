package app

import (
	"os"
	"sync"
)

// InTestMode reports whether NECTAR_TEST_MODE=1 is set. The binaries use it
// to skip runtime startup when exercised under go test.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv("NECTAR_TEST_MODE") == "1"
})
