package core

// EmitFunc forwards a message into the target layer. A processing
// function may call it zero or more times per input message.
type EmitFunc func(Message)

// Processing is the user-supplied pipeline function: it inspects,
// transforms, splits, or suppresses messages, forwarding whatever it
// wants delivered via emit. The Engine awaits its return before accepting
// the next input, so a Processing function must not block indefinitely.
type Processing func(m Message, emit EmitFunc)
