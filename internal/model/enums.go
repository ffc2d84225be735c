package model

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

type SenderType string

const (
	SenderTypeCustomer SenderType = "CUSTOMER"
	SenderTypeEmployee SenderType = "EMPLOYEE"
)
