// Package lease turns a lease template and the owner's questionnaire answers
// into the finished contract text.
//
// A template is plain text with a handful of tags:
//
//	{{key}}                       placeholder, key may be a path such as tenants.2.name
//	{{#if key}} ... {{/if}}       kept when key is truthy
//	{{#if key == "x"}} ... {{/if}} kept when key equals "x"
//	{{@parking}}                  structural clause marker, see ClauseRule
//	{{@parking:wording}}          singular/plural wording of a clause
//	{{@tenant-line}}              tenant identification line
//	{{@tenant-signature}}         first line of the tenant signature block
//	[[signature:tenant]]          signature slot, left for the assemble package
//
// Merge lexes the template into tokens, drops unsatisfied conditional
// blocks against the raw answers, removes structural clauses, expands the
// tenant entries, renumbers N.M clauses and finally substitutes placeholder
// values wrapped in **emphasis**. It never fails on data-shape problems:
// missing values become the "-" marker and malformed guards are false.
package lease
