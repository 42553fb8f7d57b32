package utility

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type OrderID = string

var (
	orderIDMu   sync.Mutex
	orderIDMono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	orderIDMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// CreateOrderID returns a ULID string. Order ids generated within the same
// millisecond remain lexicographically increasing, so the pending queue keeps
// submission order even when sorted by id.
func CreateOrderID() OrderID {
	orderIDMu.Lock()
	defer orderIDMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), orderIDMono)
	if err != nil {
		panic(err)
	}
	return id.String()
}
