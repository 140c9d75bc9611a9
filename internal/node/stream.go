package node

// TxEvent summarizes an applied transaction for stream subscribers.
type TxEvent struct {
	Hash      string `json:"hash"`
	TxType    string `json:"tx_type"`
	Account   string `json:"account"`
	Result    string `json:"result"`
	LedgerSeq uint64 `json:"ledger_seq"`
}

// SubscribeTx registers a subscriber for applied-transaction events.
// The returned cancel func unregisters it and closes the channel.
func (n *Node) SubscribeTx() (<-chan TxEvent, func()) {
	n.streamMu.Lock()
	defer n.streamMu.Unlock()

	id := n.nextSubID
	n.nextSubID++
	ch := make(chan TxEvent, 64)
	n.subscribers[id] = ch

	cancel := func() {
		n.streamMu.Lock()
		defer n.streamMu.Unlock()
		if c, ok := n.subscribers[id]; ok {
			delete(n.subscribers, id)
			close(c)
		}
	}
	return ch, cancel
}

// publishTx fans an event out to every subscriber. A subscriber that
// cannot keep up loses events rather than blocking the apply path.
func (n *Node) publishTx(ev TxEvent) {
	n.streamMu.Lock()
	defer n.streamMu.Unlock()
	for _, ch := range n.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
