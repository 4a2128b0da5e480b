// Package hub implements the in-process broadcast hub for live observations.
//
// One publisher (the ingestion loop) fans each message out to every registered
// subscription. Each subscription owns a bounded queue; when a queue is full the
// incoming message is dropped for that subscriber only. Publish never blocks on a
// slow subscriber and never fails because nobody is listening.
//
// Subscribers see messages in publish order and only messages published after
// they subscribed.
package hub
