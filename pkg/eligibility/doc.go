/*
Package eligibility interprets product eligibility rules against consumer attributes.

Rules are plain data (field, operator, value) and are never compiled to executable code.
A missing attribute always makes a qualifier false: consumer profiles are sparse, so
unknown data disqualifies instead of erroring.
*/
package eligibility
