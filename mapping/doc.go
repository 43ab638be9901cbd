// Package mapping bridges traditional medicine codes to ICD-11.
//
// A Mapper reuses the retriever to query the ICD-11 Standard and ICD-11 TM2
// catalogs with the text of a TM concept. Both catalogs are searched
// concurrently and independently, and both candidate lists are always
// returned, empty when nothing matched.
package mapping
