package pipeline

// Pipeline accepts one screening request and delivers the serialized
// response on the returned channel.
type Pipeline func(request Request) <-chan string
