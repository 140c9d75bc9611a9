package tx

import "fmt"

// Result represents a transaction result code.
type Result int

// Result codes are organized by family, following the ledger convention:
// tes (success), tec (rejected against state), tef (failure), tem
// (malformed), ter (retry). The marketplace charges no per-transaction fee,
// so unlike fee-based ledgers a tec rejection applies nothing at all.
const (
	// TesSUCCESS: the transaction was applied.
	TesSUCCESS Result = 0

	// tec codes (100-199): well-formed but rejected against current state.
	TecUNAUTHORIZED       Result = 100
	TecINSUFFICIENT_FUNDS Result = 101
	TecDUPLICATE          Result = 102
	TecNO_ENTRY           Result = 103
	TecNO_TARGET          Result = 104
	TecLISTING_INACTIVE   Result = 105
	TecLISTING_MISMATCH   Result = 106

	// tef codes (-199 to -100): processing failure.
	TefINTERNAL      Result = -192
	TefBAD_SIGNATURE Result = -186

	// tem codes (-299 to -200): malformed transaction.
	TemMALFORMED       Result = -299
	TemBAD_AMOUNT      Result = -298
	TemBAD_FEE_RATE    Result = -297
	TemBAD_TOKEN_TYPE  Result = -296
	TemBAD_SRC_ACCOUNT Result = -281
	TemINVALID         Result = -277

	// ter codes (-99 to -1): retry after state changes.
	TerNO_ACCOUNT Result = -96
)

// String returns the string representation of the result code.
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecUNAUTHORIZED:
		return "tecUNAUTHORIZED"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecDUPLICATE:
		return "tecDUPLICATE"
	case TecNO_ENTRY:
		return "tecNO_ENTRY"
	case TecNO_TARGET:
		return "tecNO_TARGET"
	case TecLISTING_INACTIVE:
		return "tecLISTING_INACTIVE"
	case TecLISTING_MISMATCH:
		return "tecLISTING_MISMATCH"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefBAD_SIGNATURE:
		return "tefBAD_SIGNATURE"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_FEE_RATE:
		return "temBAD_FEE_RATE"
	case TemBAD_TOKEN_TYPE:
		return "temBAD_TOKEN_TYPE"
	case TemBAD_SRC_ACCOUNT:
		return "temBAD_SRC_ACCOUNT"
	case TemINVALID:
		return "temINVALID"
	case TerNO_ACCOUNT:
		return "terNO_ACCOUNT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// IsSuccess returns true if the result indicates success.
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (state rejection) code.
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code.
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code.
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a ter (retry) code.
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// IsApplied returns true if the transaction changed ledger state. Only a
// success applies; every rejection leaves balances and custody untouched.
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// Message returns a human-readable message for the result.
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecUNAUTHORIZED:
		return "The signer is not authorized for this action."
	case TecINSUFFICIENT_FUNDS:
		return "The account does not hold enough of the asset."
	case TecDUPLICATE:
		return "The entry already exists."
	case TecNO_ENTRY:
		return "A referenced ledger entry does not exist."
	case TecNO_TARGET:
		return "The addressed vault or mint does not match an initialized vault."
	case TecLISTING_INACTIVE:
		return "The listing was already closed or settled."
	case TecLISTING_MISMATCH:
		return "The listing id does not match the addressed listing."
	case TemBAD_AMOUNT:
		return "Prices and offer amounts must be positive."
	case TemBAD_FEE_RATE:
		return "The trade fee rate exceeds 10000 basis points."
	case TemBAD_TOKEN_TYPE:
		return "Unknown or mismatched payment-asset type tag."
	case TemBAD_SRC_ACCOUNT:
		return "Missing or malformed sender account."
	case TemINVALID:
		return "The transaction is ill-formed."
	case TefBAD_SIGNATURE:
		return "Invalid signature."
	case TerNO_ACCOUNT:
		return "The sender account does not exist."
	default:
		return r.String()
	}
}
