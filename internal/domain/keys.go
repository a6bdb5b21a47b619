package domain

// KeyPrefix is the default prefix for all supportdesk keys in the store.
const KeyPrefix = "supportdesk:"
